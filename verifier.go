package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/carelane/authcore/internal/jwtverify"
)

// Credential-verification sentinel errors. Each is terminal for the
// presented credential; the core never retries — retry, if any, is a client
// concern.
var (
	ErrMalformedCredential = errors.New("authcore: malformed credential")
	ErrSignatureMismatch   = errors.New("authcore: signature mismatch")
	ErrExpiredCredential   = errors.New("authcore: credential expired")
	ErrMissingClaim        = errors.New("authcore: missing claim")
)

// ClaimSet is the decoded payload of a verified credential. Instances only
// exist after signature, issuer, audience and expiry validation succeeded.
type ClaimSet struct {
	Subject   string
	Email     string
	TenantID  string
	Role      string
	Scope     string // raw delimited scope string; parse with ParseScopes
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// CredentialVerifier validates a presented bearer credential against the
// trusted key set. Implementations should return one of the verification
// sentinel errors above for invalid credentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (*ClaimSet, error)
}

// VerifierOption configures optional aspects of credential verification
// (audiences, algorithms, leeway). Issuer and primary audience are required
// formal arguments to NewVerifierFromDiscovery.
type VerifierOption func(*jwtverify.Config)

// WithExtraAudiences accepts additional audiences beyond the primary one.
// Intended for local/testing endpoint URLs; avoid growing this set in
// production.
func WithExtraAudiences(audiences ...string) VerifierOption {
	return func(c *jwtverify.Config) {
		c.ExpectedAudiences = append(c.ExpectedAudiences, audiences...)
	}
}

// WithAllowedAlgs restricts allowed JWS algorithms. "none" is never allowed.
// Defaults to ["RS256"].
func WithAllowedAlgs(algs ...string) VerifierOption {
	return func(c *jwtverify.Config) {
		c.AllowedAlgs = append([]string(nil), algs...)
	}
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) VerifierOption {
	return func(c *jwtverify.Config) { c.Leeway = d }
}

// NewVerifierFromDiscovery returns a CredentialVerifier that validates JWT
// access tokens discovered via OpenID Connect discovery (jwks_uri, issuer).
// Signing keys are fetched and cached with automatic refresh.
//
// Required:
//   - issuer:   authorization server issuer URL
//   - audience: expected audience ("aud") claim for this deployment
func NewVerifierFromDiscovery(ctx context.Context, issuer string, audience string, opts ...VerifierOption) (CredentialVerifier, error) {
	if audience == "" {
		return nil, errors.New("audience is required")
	}
	cfg := jwtverify.DefaultConfig()
	cfg.Issuer = issuer
	cfg.ExpectedAudiences = []string{audience}
	for _, opt := range opts {
		opt(cfg)
	}
	internal, err := jwtverify.NewFromDiscovery(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &verifierAdapter{v: internal}, nil
}

// verifierAdapter wraps the internal verifier and maps its sentinel errors
// onto the public ones used by the pipeline.
type verifierAdapter struct {
	v jwtverify.Verifier
}

func (a *verifierAdapter) Verify(ctx context.Context, credential string) (*ClaimSet, error) {
	cs, err := a.v.Verify(ctx, credential)
	if err != nil {
		switch {
		case errors.Is(err, jwtverify.ErrExpired):
			return nil, errors.Join(ErrExpiredCredential, err)
		case errors.Is(err, jwtverify.ErrMalformed):
			return nil, errors.Join(ErrMalformedCredential, err)
		case errors.Is(err, jwtverify.ErrMissingClaim):
			return nil, errors.Join(ErrMissingClaim, err)
		default:
			return nil, errors.Join(ErrSignatureMismatch, err)
		}
	}
	return &ClaimSet{
		Subject:   cs.Subject,
		Email:     cs.Email,
		TenantID:  cs.TenantID,
		Role:      cs.Role,
		Scope:     cs.Scope,
		ExpiresAt: cs.ExpiresAt,
		IssuedAt:  cs.IssuedAt,
	}, nil
}

var _ CredentialVerifier = (*verifierAdapter)(nil)
