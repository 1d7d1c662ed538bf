package jwtverify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carelane/authcore/authcoretest"
	"github.com/carelane/authcore/internal/jwtverify"
)

const aud = "https://api.clinic.example"

func newVerifier(t *testing.T, iss *authcoretest.Issuer) jwtverify.Verifier {
	t.Helper()
	cfg := jwtverify.DefaultConfig()
	cfg.Issuer = iss.URL
	cfg.ExpectedAudiences = []string{aud}
	cfg.Leeway = 0
	v, err := jwtverify.NewFromDiscovery(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func baseSpec() authcoretest.TokenSpec {
	return authcoretest.TokenSpec{
		Subject:  "sub-123",
		Email:    "provider@clinic-a.example",
		TenantID: "clinic-a",
		Role:     "healthcare_provider",
		Scope:    "patient:read appointment:read",
		Audience: aud,
	}
}

func TestVerify_HappyPath(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()
	v := newVerifier(t, iss)

	tok := iss.Mint(t, baseSpec())
	cs, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if cs.Subject != "sub-123" {
		t.Errorf("subject = %q, want sub-123", cs.Subject)
	}
	if cs.TenantID != "clinic-a" {
		t.Errorf("tenant = %q, want clinic-a", cs.TenantID)
	}
	if cs.Role != "healthcare_provider" {
		t.Errorf("role = %q", cs.Role)
	}
	if cs.Scope != "patient:read appointment:read" {
		t.Errorf("scope = %q", cs.Scope)
	}
	if !cs.ExpiresAt.After(time.Now()) {
		t.Errorf("expiry not in the future: %v", cs.ExpiresAt)
	}
}

func TestVerify_Expired(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()
	v := newVerifier(t, iss)

	spec := baseSpec()
	spec.IssuedAt = time.Now().Add(-2 * time.Hour)
	spec.ExpiresAt = time.Now().Add(-time.Hour)
	tok := iss.Mint(t, spec)

	_, err := v.Verify(context.Background(), tok)
	if !errors.Is(err, jwtverify.ErrExpired) {
		t.Fatalf("want ErrExpired, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()
	v := newVerifier(t, iss)

	for _, tok := range []string{"", "not-a-jwt", "a.b"} {
		_, err := v.Verify(context.Background(), tok)
		if !errors.Is(err, jwtverify.ErrMalformed) {
			t.Errorf("token %q: want ErrMalformed, got %v", tok, err)
		}
	}
}

func TestVerify_SignatureMismatch(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()
	v := newVerifier(t, iss)

	tok := iss.MintForeign(t, baseSpec())
	_, err := v.Verify(context.Background(), tok)
	if !errors.Is(err, jwtverify.ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid, got %v", err)
	}
	// An expired credential signed by an untrusted key is still a signature
	// problem before it is anything else; but an expired credential with a
	// good signature must never be reported as a signature mismatch.
	spec := baseSpec()
	spec.IssuedAt = time.Now().Add(-2 * time.Hour)
	spec.ExpiresAt = time.Now().Add(-time.Hour)
	_, err = v.Verify(context.Background(), iss.Mint(t, spec))
	if !errors.Is(err, jwtverify.ErrExpired) {
		t.Fatalf("want ErrExpired for trusted expired token, got %v", err)
	}
}

func TestVerify_MissingClaims(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()
	v := newVerifier(t, iss)

	cases := []struct {
		name   string
		mutate func(*authcoretest.TokenSpec)
	}{
		{"no subject", func(s *authcoretest.TokenSpec) { s.Subject = "" }},
		{"no tenant", func(s *authcoretest.TokenSpec) { s.TenantID = "" }},
		{"no role", func(s *authcoretest.TokenSpec) { s.Role = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := baseSpec()
			tc.mutate(&spec)
			_, err := v.Verify(context.Background(), iss.Mint(t, spec))
			if !errors.Is(err, jwtverify.ErrMissingClaim) {
				t.Fatalf("want ErrMissingClaim, got %v", err)
			}
		})
	}
}

func TestVerify_AudienceMismatch(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()
	v := newVerifier(t, iss)

	spec := baseSpec()
	spec.Audience = "https://other.example"
	_, err := v.Verify(context.Background(), iss.Mint(t, spec))
	if !errors.Is(err, jwtverify.ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid for audience mismatch, got %v", err)
	}
}

func TestVerify_StaticConstruction(t *testing.T) {
	iss := authcoretest.NewIssuer(t)
	defer iss.Close()

	cfg := jwtverify.DefaultConfig()
	cfg.Issuer = iss.URL
	cfg.ExpectedAudiences = []string{"https://staging.example", aud}
	v, err := jwtverify.NewStatic(context.Background(), cfg, iss.JWKSURL())
	if err != nil {
		t.Fatalf("new static: %v", err)
	}

	// Token carries only the secondary audience; intersection should pass.
	cs, err := v.Verify(context.Background(), iss.Mint(t, baseSpec()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if cs.Subject != "sub-123" {
		t.Errorf("subject = %q", cs.Subject)
	}
}
