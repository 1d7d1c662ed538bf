package authcore

import (
	"reflect"
	"testing"

	"github.com/carelane/authcore/policy"
)

func providerContext(scopes string) *UserContext {
	return &UserContext{
		ID:        "u-1",
		SubjectID: "sub-1",
		Role:      policy.RoleHealthcareProvider,
		Scopes:    ParseScopes(scopes),
		TenantID:  "clinic-a",
		Active:    true,
	}
}

func TestAuthorizeScopes_PublicAllowsWithoutContext(t *testing.T) {
	d := AuthorizeScopes(policy.OperationPolicy{Public: true, RequiredScopes: []string{policy.ScopePatientWrite}}, nil, policy.DefaultHierarchy())
	if !d.Allow {
		t.Fatal("public policy must allow a nil context")
	}
}

func TestAuthorizeScopes_EmptyRequiredAllows(t *testing.T) {
	h := policy.DefaultHierarchy()
	if d := AuthorizeScopes(policy.OperationPolicy{}, providerContext(""), h); !d.Allow {
		t.Fatal("empty required scopes must allow")
	}
}

func TestAuthorizeScopes_AnyOfSemantics(t *testing.T) {
	h := policy.DefaultHierarchy()
	p := policy.OperationPolicy{RequiredScopes: []string{policy.ScopePatientWrite, policy.ScopePatientRead}}

	// Holding just one of the two required scopes is sufficient.
	if d := AuthorizeScopes(p, providerContext("patient:read"), h); !d.Allow {
		t.Fatal("any-of: one matching scope must allow")
	}
	// Holding neither denies and returns the full required set.
	d := AuthorizeScopes(p, providerContext("appointment:read"), h)
	if d.Allow {
		t.Fatal("expected denial")
	}
	if d.Reason != DenyInsufficientScope {
		t.Errorf("reason = %q", d.Reason)
	}
	if !reflect.DeepEqual(d.RequiredScopes, []string{policy.ScopePatientWrite, policy.ScopePatientRead}) {
		t.Errorf("required = %v", d.RequiredScopes)
	}
}

func TestAuthorizeScopes_HierarchyFallback(t *testing.T) {
	h := policy.DefaultHierarchy()
	p := policy.OperationPolicy{RequiredScopes: []string{policy.ScopePatientRead}}

	// A clinic manager with no direct grants passes through the closure.
	uc := providerContext("")
	uc.Role = policy.RoleClinicManager
	if d := AuthorizeScopes(p, uc, h); !d.Allow {
		t.Fatal("hierarchy closure should satisfy the scope check")
	}

	// But the closure never grants write scopes to a manager.
	pw := policy.OperationPolicy{RequiredScopes: []string{policy.ScopePatientWrite}}
	if d := AuthorizeScopes(pw, uc, h); d.Allow {
		t.Fatal("manager closure must not satisfy a write scope")
	}
}

func TestAuthorizeScopes_NilContextDenied(t *testing.T) {
	p := policy.OperationPolicy{RequiredScopes: []string{policy.ScopePatientRead}}
	if d := AuthorizeScopes(p, nil, policy.DefaultHierarchy()); d.Allow {
		t.Fatal("nil context must not pass a scope check")
	}
}

func TestAuthorizeScopes_Deterministic(t *testing.T) {
	h := policy.DefaultHierarchy()
	p := policy.OperationPolicy{RequiredScopes: []string{policy.ScopePatientWrite}}
	uc := providerContext("patient:read")

	first := AuthorizeScopes(p, uc, h)
	for i := 0; i < 100; i++ {
		if got := AuthorizeScopes(p, uc, h); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: decision changed: %+v vs %+v", i, got, first)
		}
	}
}
