package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coliving/pkg/domain"
)

func TestRoleMembership(t *testing.T) {
	userID := id.UserID(uuid.New())

	t.Run("authenticated actors implicitly hold CLIENT", func(t *testing.T) {
		a := NewActor(userID)
		assert.True(t, HasRole(a, RoleClient))
		assert.False(t, HasRole(a, RoleOwner))
		assert.False(t, IsStaff(a))
	})

	t.Run("roles are additive", func(t *testing.T) {
		a := NewActor(userID, RoleOwner, RoleEmployee)
		assert.True(t, HasRole(a, RoleClient))
		assert.True(t, HasRole(a, RoleOwner))
		assert.True(t, HasRole(a, RoleEmployee))
		assert.False(t, HasRole(a, RoleAdmin))
		assert.True(t, IsStaff(a))
		assert.Equal(t, []Role{RoleClient, RoleEmployee, RoleOwner}, a.Roles())
	})

	t.Run("anonymous holds nothing", func(t *testing.T) {
		a := Anonymous()
		assert.False(t, HasRole(a, RoleClient))
		assert.False(t, HasAnyRole(a, RoleClient, RoleOwner, RoleEmployee, RoleAdmin))
		assert.False(t, a.Is(id.UserID{}))
	})

	t.Run("HasAnyRole matches a single hit", func(t *testing.T) {
		a := NewActor(userID, RoleAdmin)
		assert.True(t, HasAnyRole(a, RoleEmployee, RoleAdmin))
		assert.False(t, HasAnyRole(a, RoleOwner))
	})

	t.Run("Is compares user ids", func(t *testing.T) {
		a := NewActor(userID)
		assert.True(t, a.Is(userID))
		assert.False(t, a.Is(id.UserID(uuid.New())))
	})
}

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles([]string{"ROLE_OWNER", "owner", " employee "})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleOwner, RoleEmployee}, roles)

	_, err = ParseRoles([]string{"ROLE_SUPERUSER"})
	require.Error(t, err)
}

func TestActorContext(t *testing.T) {
	assert.False(t, FromContext(context.Background()).Authenticated)

	a := NewActor(id.UserID(uuid.New()), RoleOwner)
	got := FromContext(WithActor(context.Background(), a))
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, HasRole(got, RoleOwner))
}
