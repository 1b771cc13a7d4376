package models

import (
	"slices"
	"strings"

	"coliving/internal/identity"
)

// Filter narrows user listings. Email matches exactly (case-insensitive), names
// match by case-insensitive substring.
type Filter struct {
	Email     string
	FirstName string
	LastName  string
	Role      identity.Role
	IsActive  *bool
}

func (f Filter) Matches(u *User) bool {
	if f.Email != "" && u.Email != NormalizeEmail(f.Email) {
		return false
	}
	if f.FirstName != "" && !containsFold(u.FirstName, f.FirstName) {
		return false
	}
	if f.LastName != "" && !containsFold(u.LastName, f.LastName) {
		return false
	}
	if f.Role != "" && !slices.Contains(u.Roles, f.Role) {
		return false
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	c.Roles = append([]identity.Role(nil), u.Roles...)
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
