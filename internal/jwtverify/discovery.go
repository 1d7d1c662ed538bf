package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

type discoveryVerifier struct {
	cfg     *Config
	keyfunc jwt.Keyfunc

	// advertisement-only metadata learned from discovery
	jwksURI               string
	authorizationEndpoint string
	tokenEndpoint         string
}

// DiscoveryMetadata exposes optional advertisement-only endpoints learned via
// OIDC discovery. They are never used for credential validation.
type DiscoveryMetadata interface {
	JWKSURI() string
	AuthorizationEndpoint() string
	TokenEndpoint() string
}

func (v *discoveryVerifier) JWKSURI() string               { return v.jwksURI }
func (v *discoveryVerifier) AuthorizationEndpoint() string { return v.authorizationEndpoint }
func (v *discoveryVerifier) TokenEndpoint() string         { return v.tokenEndpoint }

// NewFromDiscovery performs OIDC discovery to obtain jwks_uri and issuer
// metadata, and constructs a Verifier backed by an auto-refreshing JWKS.
// The JWKS cache refreshes on TTL expiry and, rate-limited, on unknown key
// ids, which tolerates signing key rotation without restarting the process.
func NewFromDiscovery(ctx context.Context, cfg *Config) (*discoveryVerifier, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if len(cfg.ExpectedAudiences) == 0 {
		return nil, errors.New("at least one expected audience required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		Issuer        string `json:"issuer"`
		JwksURI       string `json:"jwks_uri"`
		Authorization string `json:"authorization_endpoint"`
		Token         string `json:"token_endpoint"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	missing := []string{}
	if meta.JwksURI == "" {
		missing = append(missing, "jwks_uri")
	}
	if meta.Issuer == "" {
		missing = append(missing, "issuer")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("discovery incomplete: missing %s", strings.Join(missing, ", "))
	}

	// Auto-refreshing JWKS.
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{meta.JwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	return &discoveryVerifier{
		cfg:                   cfg,
		keyfunc:               allowAlgs(cfg.AllowedAlgs, kf.Keyfunc),
		jwksURI:               meta.JwksURI,
		authorizationEndpoint: meta.Authorization,
		tokenEndpoint:         meta.Token,
	}, nil
}

func (v *discoveryVerifier) Verify(ctx context.Context, credential string) (*ClaimSet, error) {
	return verify(v.cfg, v.keyfunc, credential)
}

var _ Verifier = (*discoveryVerifier)(nil)
