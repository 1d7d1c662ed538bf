package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/carelane/authcore/policy"
	"github.com/carelane/authcore/userstore"
	"github.com/carelane/authcore/userstore/memorystore"
)

func seededStore() *memorystore.Store {
	s := memorystore.New()
	s.Put(userstore.UserRecord{
		InternalID: "u-42",
		SubjectID:  "sub-42",
		Email:      "dr.chen@clinic-a.example",
		Role:       policy.RoleHealthcareProvider,
		TenantID:   "clinic-a",
		Active:     true,
	})
	s.Put(userstore.UserRecord{
		InternalID: "u-7",
		SubjectID:  "sub-7",
		Role:       policy.RoleReceptionist,
		TenantID:   "clinic-a",
		Active:     false,
	})
	return s
}

func TestBuildUserContext_Success(t *testing.T) {
	claims := &ClaimSet{
		Subject:  "sub-42",
		TenantID: "clinic-a",
		Role:     "healthcare_provider",
		Scope:    "patient:read patient:read appointment:read",
	}
	uc, err := BuildUserContext(context.Background(), claims, seededStore())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if uc.ID != "u-42" || uc.SubjectID != "sub-42" {
		t.Errorf("identity mapping wrong: %+v", uc)
	}
	if uc.Role != policy.RoleHealthcareProvider {
		t.Errorf("role = %q", uc.Role)
	}
	if uc.TenantID != "clinic-a" {
		t.Errorf("tenant = %q", uc.TenantID)
	}
	if got := uc.Scopes.List(); len(got) != 2 {
		t.Errorf("scopes not deduplicated: %v", got)
	}
	if uc.Email != "dr.chen@clinic-a.example" {
		t.Errorf("email fallback to record failed: %q", uc.Email)
	}
}

func TestBuildUserContext_RecordIsAuthoritative(t *testing.T) {
	// The credential claims a different role and tenant than the store
	// holds; the persisted record wins.
	claims := &ClaimSet{
		Subject:  "sub-42",
		TenantID: "clinic-z",
		Role:     "administrator",
	}
	uc, err := BuildUserContext(context.Background(), claims, seededStore())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if uc.Role != policy.RoleHealthcareProvider {
		t.Errorf("role should come from the record, got %q", uc.Role)
	}
	if uc.TenantID != "clinic-a" {
		t.Errorf("tenant should come from the record, got %q", uc.TenantID)
	}
}

func TestBuildUserContext_UserNotFound(t *testing.T) {
	claims := &ClaimSet{Subject: "sub-unknown", TenantID: "clinic-a", Role: "receptionist"}
	_, err := BuildUserContext(context.Background(), claims, seededStore())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestBuildUserContext_UserInactive(t *testing.T) {
	claims := &ClaimSet{Subject: "sub-7", TenantID: "clinic-a", Role: "receptionist"}
	_, err := BuildUserContext(context.Background(), claims, seededStore())
	if !errors.Is(err, ErrUserInactive) {
		t.Fatalf("want ErrUserInactive, got %v", err)
	}
}
