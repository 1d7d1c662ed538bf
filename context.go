package authcore

import (
	"sort"
	"strings"

	"github.com/carelane/authcore/policy"
)

// ScopeSet is a deduplicated set of scope strings. Insertion order is
// irrelevant; List returns a sorted snapshot for stable output.
type ScopeSet map[string]struct{}

// Has reports whether scope is present.
func (s ScopeSet) Has(scope string) bool {
	_, ok := s[scope]
	return ok
}

// List returns the scopes in sorted order.
func (s ScopeSet) List() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s ScopeSet) Clone() ScopeSet {
	out := make(ScopeSet, len(s))
	for scope := range s {
		out[scope] = struct{}{}
	}
	return out
}

// ParseScopes splits a raw delimited scope string into a ScopeSet. Scopes
// are separated by whitespace (the OAuth "scope" claim convention) or
// commas; entries are trimmed and empty or whitespace-only entries are
// dropped silently. A malformed scope string must never deny service — the
// worst outcome of a garbled entry is a scope the caller does not hold.
func ParseScopes(raw string) ScopeSet {
	out := ScopeSet{}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

// UserContext is the pipeline's central value object: the authenticated
// caller's identity, role, granted scopes and tenant. It is built once per
// request, flows as an explicit parameter through the pipeline and is
// discarded when the operation completes — never cached or shared across
// requests, never stashed in ambient state.
type UserContext struct {
	// ID is the internal user identifier, distinct from the credential's
	// subject id.
	ID        string
	SubjectID string
	Email     string
	Role      policy.Role
	Scopes    ScopeSet
	TenantID  string
	Active    bool
}
