// Package jwtverify implements bearer credential verification for the
// authorization pipeline. It validates a JWT's signature against an
// auto-refreshing JWKS, enforces issuer, audience and time-based claims,
// and decodes the structural claims the rest of the pipeline consumes.
package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config controls validation behavior for presented credentials.
type Config struct {
	Issuer string
	// ExpectedAudiences contains the primary audience (index 0) followed by
	// any additional accepted audiences. Keep this set small in production;
	// extra entries exist mainly for local/testing endpoint URLs.
	ExpectedAudiences []string
	AllowedAlgs       []string
	Leeway            time.Duration
}

// DefaultConfig returns a Config with safe defaults for algorithm and leeway.
func DefaultConfig() *Config {
	return &Config{
		AllowedAlgs: []string{"RS256"},
		Leeway:      60 * time.Second,
	}
}

// ClaimSet is the decoded payload of a verified credential. All fields have
// passed signature and registered-claim validation by the time a ClaimSet is
// returned; the pipeline never sees claims from an unverified token.
type ClaimSet struct {
	Subject   string
	Email     string
	TenantID  string
	Role      string
	Scope     string // raw delimited scope string, parsed downstream
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Verification failure kinds. Each terminal per call: the verifier never
// retries a malformed, expired or structurally incomplete credential.
var (
	// ErrMalformed indicates the credential could not be parsed as a JWT.
	ErrMalformed = errors.New("jwtverify: malformed credential")
	// ErrSignatureInvalid indicates no trusted key (or trusted issuer/audience)
	// validates the credential.
	ErrSignatureInvalid = errors.New("jwtverify: signature mismatch")
	// ErrExpired indicates the credential's exp is not strictly in the future.
	ErrExpired = errors.New("jwtverify: credential expired")
	// ErrMissingClaim indicates a structurally required claim is absent.
	ErrMissingClaim = errors.New("jwtverify: missing claim")
)

// Verifier validates a presented credential string and returns its ClaimSet.
// Implementations MUST perform signature, issuer, audience and time
// validations before returning claims.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*ClaimSet, error)
}

// verify is the shared validation path for discovery-based and static
// verifiers once a keyfunc is available.
func verify(cfg *Config, kf jwt.Keyfunc, credential string) (*ClaimSet, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrMalformed)
	}

	// If exactly one expected audience is configured we can lean on the
	// parser's built-in audience enforcement. With multiple we intersect
	// after parsing.
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if len(cfg.ExpectedAudiences) == 1 {
		opts = append(opts, jwt.WithAudience(cfg.ExpectedAudiences[0]))
	}
	parser := jwt.NewParser(opts...)

	parsed, err := parser.Parse(credential, kf)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrMalformed)
	}

	if len(cfg.ExpectedAudiences) > 1 && !audIntersects(claims["aud"], cfg.ExpectedAudiences) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrSignatureInvalid)
	}

	return claimSetFrom(claims)
}

// classify maps jwt/v5 parse failures onto the verifier's stable error kinds.
// Expired must never be reported as a signature problem and vice versa.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMissingClaim, err)
	default:
		// Signature failures, unknown kids, disallowed algs, issuer and
		// audience mismatches all mean no trusted key vouches for this
		// credential.
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
}

func claimSetFrom(claims jwt.MapClaims) (*ClaimSet, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	tenantID, _ := claims["tenant_id"].(string)
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id", ErrMissingClaim)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}

	cs := &ClaimSet{
		Subject:  sub,
		TenantID: tenantID,
		Role:     role,
	}
	cs.Email, _ = claims["email"].(string)
	cs.Scope, _ = claims["scope"].(string)
	if expf, ok := claims["exp"].(float64); ok {
		cs.ExpiresAt = time.Unix(int64(expf), 0)
	}
	if iatf, ok := claims["iat"].(float64); ok {
		cs.IssuedAt = time.Unix(int64(iatf), 0)
	}
	return cs, nil
}

// allowAlgs wraps a keyfunc with an algorithm allowlist. "none" is never
// reachable because jwt.WithValidMethods already rejects it, but the
// allowlist keeps key material from ever being handed to a disallowed method.
func allowAlgs(algs []string, kf jwt.Keyfunc) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		alg := t.Method.Alg()
		allowed := false
		for _, a := range algs {
			if alg == a {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("disallowed alg: %s", alg)
		}
		return kf(t)
	}
}

func audIntersects(aud any, wants []string) bool {
	wantSet := map[string]struct{}{}
	for _, w := range wants {
		wantSet[w] = struct{}{}
	}
	switch v := aud.(type) {
	case string:
		_, ok := wantSet[v]
		return ok
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if _, ok2 := wantSet[s]; ok2 {
					return true
				}
			}
		}
	case []string:
		for _, s := range v {
			if _, ok := wantSet[s]; ok {
				return true
			}
		}
	}
	return false
}
