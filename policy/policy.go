// Package policy holds the static authorization declarations consulted by
// the pipeline: per-operation policies, the role vocabulary, and the role
// hierarchy closure. Everything in this package is immutable after startup;
// there is deliberately no runtime mutation path.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// OperationPolicy declares what a protected operation requires.
//
// RequiredScopes is an any-of set: a caller holding at least one of the
// listed scopes (directly or through the role hierarchy) passes the scope
// check. An empty set means no scope check. Public short-circuits the whole
// pipeline and permits anonymous callers.
type OperationPolicy struct {
	RequiredScopes      []string
	RequiresTenantMatch bool
	Public              bool
}

// ErrUnknownOperation indicates a lookup for an operation id that was never
// declared. With startup validation in place this should be unreachable.
var ErrUnknownOperation = errors.New("policy: unknown operation")

// Registry is an immutable operation-id → policy mapping. Construct one via
// Builder; a zero Registry rejects every lookup.
type Registry struct {
	policies map[string]OperationPolicy
}

// Lookup returns the policy declared for operationID.
func (r *Registry) Lookup(operationID string) (OperationPolicy, error) {
	p, ok := r.policies[operationID]
	if !ok {
		return OperationPolicy{}, fmt.Errorf("%w: %s", ErrUnknownOperation, operationID)
	}
	return p, nil
}

// OperationIDs returns the declared operation ids in sorted order.
func (r *Registry) OperationIDs() []string {
	ids := make([]string, 0, len(r.policies))
	for id := range r.policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Builder accumulates policy declarations before the registry is frozen.
type Builder struct {
	policies map[string]OperationPolicy
	dup      []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{policies: map[string]OperationPolicy{}}
}

// Declare registers the policy for an operation id. Re-declaring the same id
// is recorded and reported as an error at Build time: two call sites fighting
// over one operation's policy is a configuration defect.
func (b *Builder) Declare(operationID string, p OperationPolicy) *Builder {
	if _, exists := b.policies[operationID]; exists {
		b.dup = append(b.dup, operationID)
		return b
	}
	// Copy the scope slice so later caller mutation cannot reach the registry.
	p.RequiredScopes = append([]string(nil), p.RequiredScopes...)
	b.policies[operationID] = p
	return b
}

// Build freezes the declarations into a Registry. operationIDs is the full
// set of operation identifiers the consumer will route traffic for; Build
// fails if any of them lacks a declared policy. This check runs once at
// startup so that a missing policy can never surface as a per-request
// condition.
func (b *Builder) Build(operationIDs []string) (*Registry, error) {
	if len(b.dup) > 0 {
		return nil, fmt.Errorf("policy: duplicate declarations for %s", strings.Join(b.dup, ", "))
	}
	var missing []string
	for _, id := range operationIDs {
		if _, ok := b.policies[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("policy: no policy declared for %s", strings.Join(missing, ", "))
	}
	frozen := make(map[string]OperationPolicy, len(b.policies))
	for id, p := range b.policies {
		frozen[id] = p
	}
	return &Registry{policies: frozen}, nil
}
