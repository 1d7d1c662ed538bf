package authcore

import (
	"github.com/carelane/authcore/policy"
)

// AuthorizeScopes decides whether the caller may perform an operation class.
//
// Semantics, in order:
//   - a public policy allows unconditionally, without inspecting uc (which
//     may be nil for anonymous callers);
//   - an empty required-scope set allows;
//   - otherwise at least one required scope must be present in uc.Scopes
//     directly, or implied by the role hierarchy closure of uc.Role.
//
// Required scopes are any-of, not all-of. Pure function: the same
// (policy, context) pair always yields the same Decision.
func AuthorizeScopes(p policy.OperationPolicy, uc *UserContext, h *policy.Hierarchy) Decision {
	if p.Public {
		return allow()
	}
	if len(p.RequiredScopes) == 0 {
		return allow()
	}
	denied := Decision{
		Reason:         DenyInsufficientScope,
		RequiredScopes: append([]string(nil), p.RequiredScopes...),
	}
	if uc == nil {
		return denied
	}
	for _, want := range p.RequiredScopes {
		if uc.Scopes.Has(want) {
			return allow()
		}
	}
	closure := h.Closure(uc.Role)
	for _, want := range p.RequiredScopes {
		if _, ok := closure[want]; ok {
			return allow()
		}
	}
	return denied
}
