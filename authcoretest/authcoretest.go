// Package authcoretest provides test doubles for exercising the
// authorization pipeline: an in-process OIDC issuer backed by httptest that
// serves discovery metadata and a JWKS, plus helpers for minting signed
// credentials with arbitrary claims.
package authcoretest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is an in-process OIDC issuer. Tokens it mints validate against the
// JWKS it serves; tokens minted with ForeignKey do not.
type Issuer struct {
	URL string

	srv *httptest.Server
	key *rsa.PrivateKey
	kid string
}

// NewIssuer starts an httptest server serving OIDC discovery metadata and a
// single-key JWKS. Callers must Close it.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	iss := &Issuer{key: key, kid: "test-key"}

	jwk := jose.JSONWebKey{Key: &key.PublicKey, KeyID: iss.kid, Algorithm: "RS256", Use: "sig"}
	keysJSON, err := json.Marshal(struct {
		Keys []jose.JSONWebKey `json:"keys"`
	}{Keys: []jose.JSONWebKey{jwk}})
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                   iss.URL,
			"jwks_uri":                 iss.URL + "/keys",
			"authorization_endpoint":   iss.URL + "/oauth2/auth",
			"token_endpoint":           iss.URL + "/oauth2/token",
			"response_types_supported": []string{"code"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(keysJSON)
	})

	iss.srv = httptest.NewServer(mux)
	iss.URL = iss.srv.URL
	return iss
}

// Close shuts down the issuer's HTTP server.
func (i *Issuer) Close() { i.srv.Close() }

// JWKSURL returns the issuer's JWKS endpoint, for manual verifier
// construction.
func (i *Issuer) JWKSURL() string { return i.URL + "/keys" }

// TokenSpec describes the credential to mint. Zero-valued time fields
// default to a one hour lifetime from now. Empty claim fields are omitted
// from the token entirely, which is how tests provoke missing-claim
// failures.
type TokenSpec struct {
	Subject  string
	Email    string
	TenantID string
	Role     string
	Scope    string
	Audience string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Mint signs a credential with the issuer's key.
func (i *Issuer) Mint(t testing.TB, spec TokenSpec) string {
	t.Helper()
	return signToken(t, i.key, i.kid, i.claims(spec))
}

// MintForeign signs a credential with a key the issuer's JWKS does not
// contain. Structurally identical to Mint output; fails signature
// validation.
func (i *Issuer) MintForeign(t testing.TB, spec TokenSpec) string {
	t.Helper()
	foreign, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate foreign key: %v", err)
	}
	return signToken(t, foreign, i.kid, i.claims(spec))
}

func (i *Issuer) claims(spec TokenSpec) jwt.MapClaims {
	now := time.Now()
	iat := spec.IssuedAt
	if iat.IsZero() {
		iat = now
	}
	exp := spec.ExpiresAt
	if exp.IsZero() {
		exp = now.Add(time.Hour)
	}
	claims := jwt.MapClaims{
		"iss": i.URL,
		"iat": iat.Unix(),
		"exp": exp.Unix(),
	}
	if spec.Subject != "" {
		claims["sub"] = spec.Subject
	}
	if spec.Email != "" {
		claims["email"] = spec.Email
	}
	if spec.TenantID != "" {
		claims["tenant_id"] = spec.TenantID
	}
	if spec.Role != "" {
		claims["role"] = spec.Role
	}
	if spec.Scope != "" {
		claims["scope"] = spec.Scope
	}
	if spec.Audience != "" {
		claims["aud"] = spec.Audience
	}
	return claims
}

func signToken(t testing.TB, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
