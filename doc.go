// Package authcore implements the request-authorization pipeline for the
// clinic platform: bearer credential verification, user-context
// construction, scope authorization and tenant-isolation enforcement.
//
// The public surface intentionally stays small. An Evaluator runs the whole
// pipeline for one inbound operation:
//
//	res := ev.Evaluate(ctx, "patients.read", bearerToken, &targetTenantID)
//	if !res.Authorized { /* map res.Kind to a transport status */ }
//	uc := res.Context // per-request, never cached
//
// Stages run in a fixed order — verify, build context, check scopes, check
// tenant — and any rejection short-circuits the rest. The scope check runs
// strictly before the tenant check so an under-scoped caller learns nothing
// about which tenants' resources exist.
//
// # Credential verification
//
// NewVerifierFromDiscovery validates RFC 9068 style JWT access tokens using
// OpenID Connect discovery to obtain the issuer's JWKS; VerifierConfig
// supports a manual (no discovery) construction path. Signing keys are
// cached and refreshed automatically, which tolerates key rotation.
//
// # Decisions
//
// AuthorizeScopes and EnforceTenant are pure functions: the same policy and
// context always yield the same Decision. Required scopes are any-of — one
// matching scope, held directly or implied by the role hierarchy closure,
// is sufficient.
//
// # Errors
//
// Every terminal failure carries a stable ErrorKind. Verification failures
// (malformed, signature mismatch, expired, missing claim) map to a
// 401-equivalent at the boundary; insufficient scope and cross-tenant
// denials map to a 403-equivalent and carry actionable detail. The boundary
// must never echo credentials, key material or foreign tenant identifiers.
package authcore
