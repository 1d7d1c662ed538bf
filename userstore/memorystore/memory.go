// Package memorystore provides an in-memory implementation of the
// userstore.Lookup port. It is intended for tests, examples and
// single-process development setups.
package memorystore

import (
	"context"
	"sync"

	"github.com/carelane/authcore/userstore"
)

// Store is a concurrency-safe in-memory user lookup.
type Store struct {
	mu    sync.RWMutex
	users map[string]userstore.UserRecord // keyed by subject id
}

// New returns an empty Store.
func New() *Store {
	return &Store{users: map[string]userstore.UserRecord{}}
}

// Put inserts or replaces the record for its subject id.
func (s *Store) Put(rec userstore.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[rec.SubjectID] = rec
}

// Delete removes the record for a subject id, if present.
func (s *Store) Delete(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, subjectID)
}

// FindBySubjectID implements userstore.Lookup.
func (s *Store) FindBySubjectID(ctx context.Context, subjectID string) (*userstore.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[subjectID]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	// Return a copy; callers must not be able to mutate the stored record.
	out := rec
	return &out, nil
}

var _ userstore.Lookup = (*Store)(nil)
