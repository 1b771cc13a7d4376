package models

import (
	"net/mail"
	"strings"
	"time"

	"coliving/internal/identity"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// User is a registered account. Roles are stored without the implicit CLIENT.
type User struct {
	ID              id.UserID       `json:"id"`
	Email           string          `json:"email"`
	PasswordHash    string          `json:"-"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	PhoneNumber     string          `json:"phoneNumber,omitempty"`
	Roles           []identity.Role `json:"roles"`
	IsActive        bool            `json:"isActive"`
	IsEmailVerified bool            `json:"isEmailVerified"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       *time.Time      `json:"updatedAt,omitempty"`
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates an active account with no stored role.
func NewUser(userID id.UserID, email, passwordHash, firstName, lastName string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return &User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Roles:        []identity.Role{},
		IsActive:     true,
		CreatedAt:    now,
	}, nil
}

// Actor returns the principal this user acts as once authenticated.
func (u *User) Actor() identity.Actor {
	return identity.NewActor(u.ID, u.Roles...)
}

// CanLogin gates authentication on the account state.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return dErrors.New(dErrors.CodeUnauthorized, "account is disabled")
	}
	return nil
}

// SetRoles replaces the stored roles. CLIENT is implicit and not stored.
func (u *User) SetRoles(roles []identity.Role, now time.Time) {
	out := make([]identity.Role, 0, len(roles))
	seen := map[identity.Role]bool{identity.RoleClient: true}
	for _, r := range roles {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	u.Roles = out
	u.UpdatedAt = &now
}

// Deactivate disables the account.
func (u *User) Deactivate(now time.Time) error {
	if !u.IsActive {
		return dErrors.New(dErrors.CodeInvalidTransition, "user is already inactive")
	}
	u.IsActive = false
	u.UpdatedAt = &now
	return nil
}

// Reactivate re-enables the account.
func (u *User) Reactivate(now time.Time) error {
	if u.IsActive {
		return dErrors.New(dErrors.CodeInvalidTransition, "user is already active")
	}
	u.IsActive = true
	u.UpdatedAt = &now
	return nil
}

// Profile holds the fields a user may edit on their own account. Nil fields are
// left unchanged.
type Profile struct {
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// UpdateProfile applies p. A changed email is no longer considered verified.
func (u *User) UpdateProfile(p Profile, now time.Time) error {
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		if _, err := mail.ParseAddress(email); err != nil || email == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "email is invalid")
		}
		if email != u.Email {
			u.Email = email
			u.IsEmailVerified = false
		}
	}
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*p.PhoneNumber)
	}
	u.UpdatedAt = &now
	return nil
}

// SetPassword replaces the stored hash.
func (u *User) SetPassword(hash string, now time.Time) {
	u.PasswordHash = hash
	u.UpdatedAt = &now
}
