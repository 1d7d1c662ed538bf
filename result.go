package authcore

import "errors"

// ErrorKind is the stable, transport-independent classification of a
// pipeline rejection. Boundary layers switch on it; its values are part of
// the package's compatibility surface.
type ErrorKind string

const (
	// KindCredentialRequired — no credential was presented for a non-public
	// operation.
	KindCredentialRequired ErrorKind = "credential_required"
	// KindMalformedCredential — the credential could not be parsed.
	KindMalformedCredential ErrorKind = "malformed_credential"
	// KindSignatureMismatch — no trusted key validates the credential.
	KindSignatureMismatch ErrorKind = "signature_mismatch"
	// KindExpiredCredential — the credential's expiry is not in the future.
	KindExpiredCredential ErrorKind = "credential_expired"
	// KindMissingClaim — a structurally required claim is absent.
	KindMissingClaim ErrorKind = "missing_claim"
	// KindUserNotFound — the credential is valid but no internal user record
	// exists for its subject.
	KindUserNotFound ErrorKind = "user_not_found"
	// KindUserInactive — the internal user record is deactivated.
	KindUserInactive ErrorKind = "user_inactive"
	// KindInsufficientScope — the caller holds none of the operation's
	// required scopes.
	KindInsufficientScope ErrorKind = "insufficient_scope"
	// KindCrossTenantAccess — the target resource belongs to another tenant.
	KindCrossTenantAccess ErrorKind = "cross_tenant_access"
	// KindUnknownOperation — no policy is declared for the operation id.
	// Startup registry validation makes this unreachable in a correctly
	// configured deployment; it exists so a defect fails closed.
	KindUnknownOperation ErrorKind = "unknown_operation"
	// KindInternal — an infrastructure collaborator (e.g. the user lookup)
	// failed. Not an authorization outcome; fails closed.
	KindInternal ErrorKind = "internal_error"
)

// Context-building sentinel errors.
var (
	ErrUserNotFound = errors.New("authcore: user not found")
	ErrUserInactive = errors.New("authcore: user inactive")
)

// DenyReason classifies a Decision denial.
type DenyReason string

const (
	DenyInsufficientScope DenyReason = "insufficient_scope"
	DenyCrossTenantAccess DenyReason = "cross_tenant_access"
)

// Decision is the outcome of a single pure authorization check.
type Decision struct {
	Allow  bool
	Reason DenyReason
	// RequiredScopes carries the operation's required scopes on an
	// insufficient-scope denial so the boundary can present an actionable
	// error without this package knowing about transports.
	RequiredScopes []string
}

func allow() Decision { return Decision{Allow: true} }

// PipelineResult is the outcome of a full pipeline evaluation.
type PipelineResult struct {
	Authorized bool
	// Context is the caller's per-request user context. Nil for public
	// operations evaluated without a credential.
	Context *UserContext
	// Kind and Detail describe the rejection. Detail is safe to surface to
	// callers: it never contains the credential, key material or another
	// tenant's identifiers.
	Kind   ErrorKind
	Detail string
	// RequiredScopes is populated on insufficient-scope rejections.
	RequiredScopes []string
}

func authorized(uc *UserContext) PipelineResult {
	return PipelineResult{Authorized: true, Context: uc}
}

func rejected(kind ErrorKind, detail string) PipelineResult {
	return PipelineResult{Kind: kind, Detail: detail}
}
