package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/carelane/authcore/internal/jwtverify"
)

// VerifierConfig is the explicit, immutable configuration for constructing
// a credential verifier without OIDC discovery. A zero value is invalid;
// populate the required fields then call Validate (NewManualVerifier does
// both normalization and validation for you).
type VerifierConfig struct {
	Issuer      string
	Audiences   []string
	AllowedAlgs []string // default: ["RS256"] if empty
	JWKSURL     string   // required for the manual path

	Leeway time.Duration // clock skew tolerance (default 60s)
}

// Normalize fills defaults in place.
func (c *VerifierConfig) Normalize() {
	if len(c.AllowedAlgs) == 0 {
		c.AllowedAlgs = []string{"RS256"}
	}
	if c.Leeway == 0 {
		c.Leeway = 60 * time.Second
	}
}

// Validate returns an error if required invariants are not met.
func (c VerifierConfig) Validate() error {
	if c.Issuer == "" {
		return errors.New("authcore: issuer required")
	}
	if len(c.Audiences) == 0 {
		return errors.New("authcore: at least one audience required")
	}
	for _, a := range c.Audiences {
		if a == "" {
			return errors.New("authcore: empty audience entry")
		}
	}
	return nil
}

// Copy returns a deep copy safe for mutation by the caller.
func (c VerifierConfig) Copy() VerifierConfig {
	dup := c
	dup.Audiences = append([]string(nil), c.Audiences...)
	dup.AllowedAlgs = append([]string(nil), c.AllowedAlgs...)
	return dup
}

// NewManualVerifier constructs a credential verifier from this configuration
// without performing OIDC discovery. It expects Issuer, at least one entry
// in Audiences, and JWKSURL. The JWKS is still cached and auto-refreshed.
func (c VerifierConfig) NewManualVerifier(ctx context.Context) (CredentialVerifier, error) {
	cc := c.Copy()
	cc.Normalize()
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	if cc.JWKSURL == "" {
		return nil, errors.New("authcore: JWKSURL required for manual verifier")
	}

	cfg := &jwtverify.Config{
		Issuer:            cc.Issuer,
		ExpectedAudiences: append([]string(nil), cc.Audiences...),
		AllowedAlgs:       append([]string(nil), cc.AllowedAlgs...),
		Leeway:            cc.Leeway,
	}
	internal, err := jwtverify.NewStatic(ctx, cfg, cc.JWKSURL)
	if err != nil {
		return nil, err
	}
	return &verifierAdapter{v: internal}, nil
}
