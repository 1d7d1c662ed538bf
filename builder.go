package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/carelane/authcore/userstore"
)

// BuildUserContext maps a verified ClaimSet plus the persisted user record
// into an immutable per-request UserContext.
//
// The persisted record is authoritative for role, tenant and active status;
// the credential contributes identity and granted scopes. Taking the active
// flag from the store is what denies session continuation immediately after
// deactivation, without waiting for the credential to expire.
//
// Returns ErrUserNotFound when no record exists for the subject id and
// ErrUserInactive when the record is deactivated. Both are context-building
// failures, kept distinct from verification failures for audit clarity.
func BuildUserContext(ctx context.Context, claims *ClaimSet, lookup userstore.Lookup) (*UserContext, error) {
	if claims == nil {
		return nil, errors.New("authcore: nil claim set")
	}
	rec, err := lookup.FindBySubjectID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, errors.Join(ErrUserNotFound, err)
		}
		return nil, fmt.Errorf("authcore: user lookup: %w", err)
	}
	if !rec.Active {
		return nil, fmt.Errorf("%w: subject %s", ErrUserInactive, claims.Subject)
	}

	email := claims.Email
	if email == "" {
		email = rec.Email
	}
	return &UserContext{
		ID:        rec.InternalID,
		SubjectID: claims.Subject,
		Email:     email,
		Role:      rec.Role,
		Scopes:    ParseScopes(claims.Scope),
		TenantID:  rec.TenantID,
		Active:    rec.Active,
	}, nil
}
