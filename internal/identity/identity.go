// Package identity models who is acting: an authenticated user with an additive set
// of roles, or the anonymous visitor.
package identity

import (
	"context"
	"sort"
	"strings"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// Role is a capability granted to a user. Roles are additive: a user can be an
// owner, an employee and a client at the same time.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleOwner    Role = "OWNER"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

var knownRoles = map[Role]bool{
	RoleClient:   true,
	RoleOwner:    true,
	RoleEmployee: true,
	RoleAdmin:    true,
}

// ParseRole accepts "OWNER" as well as the prefixed "ROLE_OWNER" form.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	if !knownRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

// ParseRoles parses a list of role names, dropping duplicates.
func ParseRoles(raw []string) ([]Role, error) {
	seen := make(map[Role]bool, len(raw))
	roles := make([]Role, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		roles = append(roles, r)
	}
	return roles, nil
}

// Actor is the authenticated principal a request runs as.
type Actor struct {
	ID            id.UserID
	Authenticated bool
	roles         map[Role]bool
}

// Anonymous returns the visitor actor. It holds no role, not even CLIENT.
func Anonymous() Actor {
	return Actor{}
}

// NewActor builds an authenticated actor. CLIENT is always granted.
func NewActor(userID id.UserID, roles ...Role) Actor {
	set := make(map[Role]bool, len(roles)+1)
	set[RoleClient] = true
	for _, r := range roles {
		set[r] = true
	}
	return Actor{ID: userID, Authenticated: true, roles: set}
}

// Roles returns the effective roles in a stable order.
func (a Actor) Roles() []Role {
	out := make([]Role, 0, len(a.roles))
	for r := range a.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Is reports whether the actor is the given user. The anonymous actor is nobody.
func (a Actor) Is(userID id.UserID) bool {
	return a.Authenticated && !userID.IsNil() && a.ID == userID
}

// HasRole reports whether the actor holds role.
func HasRole(a Actor, role Role) bool {
	if !a.Authenticated {
		return false
	}
	return a.roles[role]
}

// HasAnyRole reports whether the actor holds at least one of roles.
func HasAnyRole(a Actor, roles ...Role) bool {
	for _, r := range roles {
		if HasRole(a, r) {
			return true
		}
	}
	return false
}

// IsStaff reports whether the actor is an employee or an administrator.
func IsStaff(a Actor) bool {
	return HasAnyRole(a, RoleEmployee, RoleAdmin)
}

type actorKey struct{}

// WithActor stores the resolved actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored in ctx, or the anonymous actor.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Anonymous()
}
