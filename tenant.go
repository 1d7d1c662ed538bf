package authcore

import (
	"github.com/carelane/authcore/policy"
)

// EnforceTenant decides whether the caller may touch the specific target
// resource's tenant. It runs strictly after AuthorizeScopes: the caller
// first proves capability for the operation class, then that the instance
// belongs to their tenant. Reordering would leak which tenants' resources
// exist to under-scoped callers.
//
// Semantics, in order:
//   - policies without a tenant-match requirement allow;
//   - the superuser capability (policy.ScopeFullAccess, held directly or
//     implied by the role hierarchy) bypasses isolation — the only bypass,
//     centrally defined, never inferred from role names;
//   - an absent target tenant allows (creation-style operations default to
//     the caller's own tenant);
//   - otherwise the target tenant must equal the caller's tenant.
//
// Pure function; no side effects.
func EnforceTenant(p policy.OperationPolicy, uc *UserContext, targetTenantID *string, h *policy.Hierarchy) Decision {
	if !p.RequiresTenantMatch {
		return allow()
	}
	if uc != nil && hasFullAccess(uc, h) {
		return allow()
	}
	if targetTenantID == nil {
		return allow()
	}
	if uc != nil && *targetTenantID == uc.TenantID {
		return allow()
	}
	return Decision{Reason: DenyCrossTenantAccess}
}

func hasFullAccess(uc *UserContext, h *policy.Hierarchy) bool {
	if uc.Scopes.Has(policy.ScopeFullAccess) {
		return true
	}
	return h.Implies(uc.Role, policy.ScopeFullAccess)
}
