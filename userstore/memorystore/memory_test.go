package memorystore

import (
	"context"
	"errors"
	"testing"

	"github.com/carelane/authcore/policy"
	"github.com/carelane/authcore/userstore"
)

func TestStore_PutAndFind(t *testing.T) {
	s := New()
	s.Put(userstore.UserRecord{
		InternalID: "u-1",
		SubjectID:  "sub-1",
		Role:       policy.RoleReceptionist,
		TenantID:   "clinic-a",
		Active:     true,
	})

	rec, err := s.FindBySubjectID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.InternalID != "u-1" || rec.TenantID != "clinic-a" {
		t.Errorf("record = %+v", rec)
	}

	// Mutating the returned record must not affect the stored one.
	rec.Active = false
	again, err := s.FindBySubjectID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("find again: %v", err)
	}
	if !again.Active {
		t.Error("store observed caller mutation")
	}
}

func TestStore_NotFound(t *testing.T) {
	s := New()
	if _, err := s.FindBySubjectID(context.Background(), "missing"); !errors.Is(err, userstore.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := New()
	s.Put(userstore.UserRecord{SubjectID: "sub-1", InternalID: "u-1", Active: true})
	s.Delete("sub-1")
	if _, err := s.FindBySubjectID(context.Background(), "sub-1"); !errors.Is(err, userstore.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}
