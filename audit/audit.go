// Package audit defines the fire-and-forget audit sink port. Every
// authorization decision — allow or deny — produces one Entry; sink
// failures never influence the decision itself. Implementations live in
// subpackages (memorysink, redissink).
package audit

import (
	"context"
	"time"
)

// Outcome is the decision recorded in an audit entry.
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeDeny  Outcome = "deny"
)

// Entry records a single authorization decision.
type Entry struct {
	ID          string    `json:"id"`
	Outcome     Outcome   `json:"outcome"`
	Reason      string    `json:"reason,omitempty"` // stable error kind on deny, empty on allow
	OperationID string    `json:"operation_id"`
	SubjectID   string    `json:"subject_id,omitempty"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Sink receives audit entries. Write should be fast; the pipeline dispatches
// entries from a single background goroutine and drops entries rather than
// block the request path.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}
