// Package httpauth adapts the authorization pipeline to an HTTP boundary:
// it extracts the bearer credential, runs the Evaluator, translates
// rejections into 401/403 responses with RFC 6750 Bearer challenges, and
// exposes the authorized UserContext to downstream handlers through the
// request context.
//
// Response bodies never include the credential, signing key material,
// another tenant's identifiers, or the reason a user record lookup failed.
package httpauth

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	authcore "github.com/carelane/authcore"
	"github.com/carelane/authcore/internal/logctx"
)

const authorizationHeader = "Authorization"

// OperationResolver maps an inbound request to the operation identifier to
// authorize and, when the request targets a specific resource, that
// resource's tenant id. Returning an empty operation id means the route is
// unknown and the middleware responds 404.
type OperationResolver func(r *http.Request) (operationID string, targetTenantID *string)

// Option configures the middleware.
type Option func(*middleware)

// WithRealm sets the realm echoed in WWW-Authenticate challenges.
// Defaults to "authcore".
func WithRealm(realm string) Option {
	return func(m *middleware) { m.realm = realm }
}

type middleware struct {
	ev      *authcore.Evaluator
	resolve OperationResolver
	next    http.Handler
	realm   string
}

// Middleware wraps next with pipeline enforcement. Every request is
// resolved to an operation id, evaluated, and either forwarded with the
// UserContext attached to the request context or rejected.
func Middleware(ev *authcore.Evaluator, resolve OperationResolver, opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		m := &middleware{ev: ev, resolve: resolve, next: next, realm: "authcore"}
		for _, opt := range opts {
			opt(m)
		}
		return m
	}
}

func (m *middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
	})

	operationID, targetTenantID := m.resolve(r)
	if operationID == "" {
		http.NotFound(w, r)
		return
	}

	credential, ok := bearerToken(r)
	if !ok {
		m.writeChallenge(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_request",
			"error_description": "Invalid Authorization header",
		})
		return
	}

	res := m.ev.Evaluate(ctx, operationID, credential, targetTenantID)
	if !res.Authorized {
		m.writeRejection(w, res)
		return
	}

	if res.Context != nil {
		ctx = withUserContext(ctx, res.Context)
	}
	m.next.ServeHTTP(w, r.WithContext(ctx))
}

// bearerToken extracts the bearer credential. Returns ("", true) when no
// Authorization header is present — absence is for the pipeline to judge —
// and ok=false only for a present but non-Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	raw := r.Header.Get(authorizationHeader)
	if raw == "" {
		return "", true
	}
	const prefix = "bearer "
	if len(raw) < len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(raw[len(prefix):])
	if tok == "" {
		return "", false
	}
	return tok, true
}

type errorBody struct {
	Error          string   `json:"error"`
	RequiredScopes []string `json:"required_scopes,omitempty"`
}

func (m *middleware) writeRejection(w http.ResponseWriter, res authcore.PipelineResult) {
	switch res.Kind {
	case authcore.KindCredentialRequired:
		m.writeChallenge(w, http.StatusUnauthorized, nil)
	case authcore.KindMalformedCredential,
		authcore.KindSignatureMismatch,
		authcore.KindExpiredCredential,
		authcore.KindMissingClaim,
		// Lookup outcomes deliberately collapse into the generic invalid
		// token challenge so a 401 cannot be used to enumerate accounts.
		authcore.KindUserNotFound,
		authcore.KindUserInactive:
		m.writeChallenge(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_token",
			"error_description": "The access token is invalid",
		})
	case authcore.KindInsufficientScope:
		params := map[string]string{"error": "insufficient_scope"}
		if len(res.RequiredScopes) > 0 {
			params["scope"] = strings.Join(res.RequiredScopes, " ")
		}
		w.Header().Set("WWW-Authenticate", buildBearerChallenge(m.realm, params))
		writeJSON(w, http.StatusForbidden, errorBody{
			Error:          string(res.Kind),
			RequiredScopes: res.RequiredScopes,
		})
	case authcore.KindCrossTenantAccess:
		writeJSON(w, http.StatusForbidden, errorBody{Error: string(res.Kind)})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: string(authcore.KindInternal)})
	}
}

func (m *middleware) writeChallenge(w http.ResponseWriter, status int, params map[string]string) {
	w.Header().Set("WWW-Authenticate", buildBearerChallenge(m.realm, params))
	writeJSON(w, status, errorBody{Error: "unauthorized"})
}

// buildBearerChallenge builds a standardized Bearer challenge header value:
//
//	Bearer realm="<realm>", error="...", error_description="..."
func buildBearerChallenge(realm string, params map[string]string) string {
	pieces := []string{`realm="` + realm + `"`}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pieces = append(pieces, k+`="`+params[k]+`"`)
	}
	return "Bearer " + strings.Join(pieces, ", ")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type userContextKey struct{}

func withUserContext(ctx context.Context, uc *authcore.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, uc)
}

// UserContextFrom returns the authorized caller's UserContext placed by the
// middleware, if any. The context value is request-scoped; handlers must
// not retain it past the request.
func UserContextFrom(ctx context.Context) (*authcore.UserContext, bool) {
	uc, ok := ctx.Value(userContextKey{}).(*authcore.UserContext)
	return uc, ok
}
