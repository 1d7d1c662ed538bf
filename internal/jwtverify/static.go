package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

type staticVerifier struct {
	cfg     *Config
	keyfunc jwt.Keyfunc
}

// NewStatic constructs a verifier that validates credentials against a
// statically configured issuer, audiences and JWKS URI (no discovery).
// The JWKS is still fetched and cached with the same refresh behavior as
// the discovery path.
func NewStatic(ctx context.Context, cfg *Config, jwksURI string) (*staticVerifier, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if len(cfg.ExpectedAudiences) == 0 {
		return nil, errors.New("at least one expected audience required")
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}
	if len(cfg.AllowedAlgs) == 0 {
		cfg.AllowedAlgs = []string{"RS256"}
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 60 * time.Second
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	return &staticVerifier{cfg: cfg, keyfunc: allowAlgs(cfg.AllowedAlgs, kf.Keyfunc)}, nil
}

func (v *staticVerifier) Verify(ctx context.Context, credential string) (*ClaimSet, error) {
	return verify(v.cfg, v.keyfunc, credential)
}

var _ Verifier = (*staticVerifier)(nil)
