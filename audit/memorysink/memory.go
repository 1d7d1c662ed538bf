// Package memorysink provides a bounded in-memory audit sink for tests,
// examples and development.
package memorysink

import (
	"context"
	"sync"

	"github.com/carelane/authcore/audit"
)

const defaultCapacity = 1024

// Sink retains the most recent entries up to a fixed capacity.
type Sink struct {
	mu      sync.Mutex
	entries []audit.Entry
	cap     int
}

// New returns a Sink retaining up to capacity entries; capacity <= 0 uses
// the default.
func New(capacity int) *Sink {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Sink{cap: capacity}
}

// Write implements audit.Sink.
func (s *Sink) Write(ctx context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.cap {
		s.entries = s.entries[len(s.entries)-s.cap:]
	}
	return nil
}

// Entries returns a snapshot of the retained entries, oldest first.
func (s *Sink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}

var _ audit.Sink = (*Sink)(nil)
