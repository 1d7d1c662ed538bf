package policy

import (
	"fmt"
)

// Role is a named position in the clinic's staffing model. Roles grant
// scopes only through the hierarchy closure table below — never through
// name matching.
type Role string

const (
	RoleAdministrator      Role = "administrator"
	RoleClinicManager      Role = "clinic_manager"
	RoleHealthcareProvider Role = "healthcare_provider"
	RoleReceptionist       Role = "receptionist"
	RoleAnonymous          Role = "anonymous"
)

// Scope vocabulary for the clinic platform.
const (
	ScopePatientRead       = "patient:read"
	ScopePatientWrite      = "patient:write"
	ScopeAppointmentRead   = "appointment:read"
	ScopeAppointmentWrite  = "appointment:write"
	ScopePrescriptionRead  = "prescription:read"
	ScopePrescriptionWrite = "prescription:write"
	ScopeClinicManage      = "clinic:manage"

	// ScopeFullAccess is the single designated superuser capability. Holding
	// it bypasses tenant isolation. It is defined here, centrally, so the
	// bypass can never be inferred from a role's name.
	ScopeFullAccess = "clinic:full_access"
)

type roleGrant struct {
	implied []string
	parents []Role
}

// Hierarchy is the explicit role → implied-scopes closure table. It is
// immutable after construction and evaluated lazily at decision time, so a
// UserContext carries only the scopes its credential granted while the
// hierarchy stays centrally auditable.
type Hierarchy struct {
	grants map[Role]roleGrant
}

// HierarchyBuilder accumulates role grants before validation.
type HierarchyBuilder struct {
	grants map[Role]roleGrant
}

// NewHierarchyBuilder returns an empty builder.
func NewHierarchyBuilder() *HierarchyBuilder {
	return &HierarchyBuilder{grants: map[Role]roleGrant{}}
}

// Grant sets the scopes implied directly by role.
func (b *HierarchyBuilder) Grant(role Role, scopes ...string) *HierarchyBuilder {
	g := b.grants[role]
	g.implied = append(g.implied, scopes...)
	b.grants[role] = g
	return b
}

// Inherit makes role imply everything its parent implies.
func (b *HierarchyBuilder) Inherit(role Role, parent Role) *HierarchyBuilder {
	g := b.grants[role]
	g.parents = append(g.parents, parent)
	b.grants[role] = g
	return b
}

// Build validates the relation is acyclic and freezes it.
func (b *HierarchyBuilder) Build() (*Hierarchy, error) {
	for role := range b.grants {
		if err := b.checkCycle(role, role, map[Role]bool{}); err != nil {
			return nil, err
		}
	}
	frozen := make(map[Role]roleGrant, len(b.grants))
	for role, g := range b.grants {
		frozen[role] = roleGrant{
			implied: append([]string(nil), g.implied...),
			parents: append([]Role(nil), g.parents...),
		}
	}
	return &Hierarchy{grants: frozen}, nil
}

func (b *HierarchyBuilder) checkCycle(origin, role Role, seen map[Role]bool) error {
	if seen[role] {
		return fmt.Errorf("policy: role hierarchy cycle through %q", origin)
	}
	seen[role] = true
	for _, parent := range b.grants[role].parents {
		if err := b.checkCycle(origin, parent, seen); err != nil {
			return err
		}
	}
	seen[role] = false
	return nil
}

// Closure returns the full set of scopes implied by role, walking parent
// links transitively. Unknown roles imply nothing.
func (h *Hierarchy) Closure(role Role) map[string]struct{} {
	out := map[string]struct{}{}
	if h == nil {
		return out
	}
	h.collect(role, out, map[Role]bool{})
	return out
}

// Implies reports whether role's closure contains scope.
func (h *Hierarchy) Implies(role Role, scope string) bool {
	_, ok := h.Closure(role)[scope]
	return ok
}

func (h *Hierarchy) collect(role Role, out map[string]struct{}, seen map[Role]bool) {
	if seen[role] {
		return
	}
	seen[role] = true
	g := h.grants[role]
	for _, s := range g.implied {
		out[s] = struct{}{}
	}
	for _, parent := range g.parents {
		h.collect(parent, out, seen)
	}
}

// DefaultHierarchy returns the clinic platform's standard closure table:
// administrators imply every scope including the superuser capability;
// clinic managers imply the read-only scopes plus clinic administration;
// providers and receptionists receive scopes only through explicit grants
// on their credentials.
func DefaultHierarchy() *Hierarchy {
	h, err := NewHierarchyBuilder().
		Grant(RoleClinicManager,
			ScopePatientRead,
			ScopeAppointmentRead,
			ScopePrescriptionRead,
			ScopeClinicManage,
		).
		Grant(RoleAdministrator,
			ScopePatientWrite,
			ScopeAppointmentWrite,
			ScopePrescriptionWrite,
			ScopeFullAccess,
		).
		Inherit(RoleAdministrator, RoleClinicManager).
		Build()
	if err != nil {
		// The table above is static; a cycle here is a programming error.
		panic(err)
	}
	return h
}
