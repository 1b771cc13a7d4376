package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coliving/internal/identity"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(id.UserID(uuid.New()), "  Alice@Example.COM ", "hash", "Alice", "Martin", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.Roles)
	assert.True(t, identity.HasRole(u.Actor(), identity.RoleClient))

	_, err = NewUser(id.UserID(uuid.New()), "not-an-email", "hash", "", "", time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestSetRolesDropsImplicitClient(t *testing.T) {
	u, err := NewUser(id.UserID(uuid.New()), "bob@example.com", "hash", "", "", time.Now())
	require.NoError(t, err)
	u.SetRoles([]identity.Role{identity.RoleClient, identity.RoleOwner, identity.RoleOwner}, time.Now())
	assert.Equal(t, []identity.Role{identity.RoleOwner}, u.Roles)
	assert.True(t, identity.HasRole(u.Actor(), identity.RoleOwner))
}

func TestDeactivationGatesLogin(t *testing.T) {
	u, err := NewUser(id.UserID(uuid.New()), "carol@example.com", "hash", "", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, u.CanLogin())

	require.NoError(t, u.Deactivate(time.Now()))
	assert.True(t, dErrors.HasCode(u.CanLogin(), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(u.Deactivate(time.Now()), dErrors.CodeInvalidTransition))
	require.NoError(t, u.Reactivate(time.Now()))
}

func TestUpdateProfile(t *testing.T) {
	u, err := NewUser(id.UserID(uuid.New()), "dan@example.com", "hash", "Dan", "", time.Now())
	require.NoError(t, err)
	u.IsEmailVerified = true

	same := "DAN@example.com"
	require.NoError(t, u.UpdateProfile(Profile{Email: &same}, time.Now()))
	assert.True(t, u.IsEmailVerified)

	other, last := "daniel@example.com", " Moreau "
	require.NoError(t, u.UpdateProfile(Profile{Email: &other, LastName: &last}, time.Now()))
	assert.Equal(t, "daniel@example.com", u.Email)
	assert.Equal(t, "Moreau", u.LastName)
	assert.False(t, u.IsEmailVerified)

	bad := "nope"
	assert.True(t, dErrors.HasCode(u.UpdateProfile(Profile{Email: &bad}, time.Now()), dErrors.CodeInvariantViolation))
}
