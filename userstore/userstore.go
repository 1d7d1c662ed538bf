// Package userstore defines the user lookup port consumed by the
// authorization pipeline. The pipeline resolves a verified credential's
// subject id to the internal user record; implementations live in
// subpackages (memorystore, pgstore).
package userstore

import (
	"context"
	"errors"

	"github.com/carelane/authcore/policy"
)

// ErrNotFound indicates no internal record exists for a subject id.
// A cryptographically valid credential for an unknown or deprovisioned user
// is reported with this sentinel so audit trails can distinguish it from
// verification failures.
var ErrNotFound = errors.New("userstore: user not found")

// UserRecord is the persisted identity the platform knows for a subject.
// The record — not the credential — is authoritative for role, tenant and
// active status, which is what lets deactivation take effect before the
// credential expires.
type UserRecord struct {
	InternalID string
	SubjectID  string
	Email      string
	Role       policy.Role
	TenantID   string
	Active     bool
}

// Lookup resolves subject ids to internal user records.
type Lookup interface {
	// FindBySubjectID returns the record for the subject id, or ErrNotFound.
	FindBySubjectID(ctx context.Context, subjectID string) (*UserRecord, error)
}
