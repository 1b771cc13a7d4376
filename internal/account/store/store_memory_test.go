package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coliving/internal/account/models"
	"coliving/internal/identity"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *UserStoreSuite) newUser(email, first, last string) *models.User {
	u, err := models.NewUser(id.UserID(uuid.New()), email, "hash", first, last, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *UserStoreSuite) TestLookup() {
	jane := s.newUser("jane.doe@example.com", "Jane", "Doe")

	s.Run("by id", func() {
		found, err := s.store.FindUser(s.ctx, jane.ID)
		s.Require().NoError(err)
		s.Equal(jane.Email, found.Email)
	})

	s.Run("by email ignores case", func() {
		found, err := s.store.FindUserByEmail(s.ctx, "Jane.Doe@Example.com")
		s.Require().NoError(err)
		s.Equal(jane.ID, found.ID)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindUser(s.ctx, id.UserID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown email", func() {
		_, err := s.store.FindUserByEmail(s.ctx, "missing@example.com")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *UserStoreSuite) TestEmailUniqueness() {
	jane := s.newUser("jane@example.com", "Jane", "Doe")
	john := s.newUser("john@example.com", "John", "Doe")

	dup, err := models.NewUser(id.UserID(uuid.New()), "JANE@example.com", "hash", "", "", time.Now())
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateUser(s.ctx, dup), sentinel.ErrConflict)

	john.Email = jane.Email
	s.ErrorIs(s.store.UpdateUser(s.ctx, john), sentinel.ErrConflict)

	jane.Email = "jane.new@example.com"
	s.Require().NoError(s.store.UpdateUser(s.ctx, jane))
	_, err = s.store.FindUserByEmail(s.ctx, "jane@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *UserStoreSuite) TestDeletion() {
	u := s.newUser("delete.me@example.com", "Delete", "Me")
	s.Require().NoError(s.store.DeleteUser(s.ctx, u.ID))

	_, err := s.store.FindUser(s.ctx, u.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.DeleteUser(s.ctx, u.ID), sentinel.ErrNotFound)

	again, err := models.NewUser(id.UserID(uuid.New()), u.Email, "hash", "", "", time.Now())
	s.Require().NoError(err)
	s.NoError(s.store.CreateUser(s.ctx, again), "email is free again")
}

func (s *UserStoreSuite) TestFilters() {
	owner := s.newUser("olivia@example.com", "Olivia", "Martin")
	owner.SetRoles([]identity.Role{identity.RoleOwner}, time.Now())
	s.Require().NoError(s.store.UpdateUser(s.ctx, owner))
	s.newUser("marc@example.com", "Marc", "Martinez")

	_, total, err := s.store.ListUsers(s.ctx, models.Filter{LastName: "mart"}, paging.First())
	s.Require().NoError(err)
	s.Equal(2, total)

	items, total, err := s.store.ListUsers(s.ctx, models.Filter{Role: identity.RoleOwner}, paging.First())
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(owner.ID, items[0].ID)
}
