// Package identity defines the closed set of roles the back office authorizes against.
package identity

import (
	"context"
	"sort"
	"strings"
)

// Role is one capability granted to a user
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePurchasing Role = "purchasing"
	RoleApprover   Role = "approver"
	RoleFinance    Role = "finance"
	RoleWarehouse  Role = "warehouse"
	RoleViewer     Role = "viewer"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RolePurchasing: {},
	RoleApprover:   {},
	RoleFinance:    {},
	RoleWarehouse:  {},
	RoleViewer:     {},
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := knownRoles[r]
	return ok
}

// RoleSet is the set of roles held by one user
type RoleSet map[Role]struct{}

// NewRoleSet builds a set, dropping unknown roles
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			s[r] = struct{}{}
		}
	}
	return s
}

// ParseRoles parses the comma-separated role string returned by the role lookup.
// Whitespace and case are ignored; unknown names are dropped.
func ParseRoles(raw string) RoleSet {
	parts := strings.Split(raw, ",")
	roles := make([]Role, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			roles = append(roles, Role(p))
		}
	}
	return NewRoleSet(roles...)
}

// Has reports whether the set contains r
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set contains at least one of required.
// An empty requirement is satisfied by any authenticated user.
func (s RoleSet) HasAny(required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the roles sorted by name
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// Principal is the authenticated caller
type Principal struct {
	UserID string
	Roles  RoleSet
}

// RoleLookup resolves a user's role assignment as a comma-separated string
type RoleLookup interface {
	RolesFor(ctx context.Context, userID string) (string, error)
}
