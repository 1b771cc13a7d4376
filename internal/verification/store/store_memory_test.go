package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coliving/internal/verification/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type VerificationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestVerificationStoreSuite(t *testing.T) {
	suite.Run(t, new(VerificationStoreSuite))
}

func (s *VerificationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
}

func (s *VerificationStoreSuite) TestSpaceVerifications() {
	space := id.ColivingSpaceID(uuid.New())
	room := id.PrivateSpaceID(uuid.New())
	verifier := id.UserID(uuid.New())

	whole, err := models.NewVerificationSpace(id.VerificationID(uuid.New()), space, nil, verifier, s.now)
	s.Require().NoError(err)
	roomCheck, err := models.NewVerificationSpace(id.VerificationID(uuid.New()), space, &room, verifier, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSpaceVerification(s.ctx, whole))
	s.Require().NoError(s.store.CreateSpaceVerification(s.ctx, roomCheck))
	s.ErrorIs(s.store.CreateSpaceVerification(s.ctx, whole), sentinel.ErrConflict)

	s.Run("stored copies are isolated", func() {
		found, err := s.store.FindSpaceVerification(s.ctx, whole.ID)
		s.Require().NoError(err)
		note := "edited outside the store"
		found.SetNotes(&note)

		again, err := s.store.FindSpaceVerification(s.ctx, whole.ID)
		s.Require().NoError(err)
		s.Nil(again.Notes)
	})

	s.Run("filters by room and status", func() {
		items, total, err := s.store.ListSpaceVerifications(s.ctx, models.SpaceFilter{PrivateSpaceID: &room}, paging.First())
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal(roomCheck.ID, items[0].ID)

		s.Require().NoError(whole.Resolve(models.StatusValidated, s.now))
		s.Require().NoError(s.store.UpdateSpaceVerification(s.ctx, whole))
		items, total, err = s.store.ListSpaceVerifications(s.ctx, models.SpaceFilter{Status: models.StatusPending, ColivingSpaceID: &space}, paging.First())
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal(roomCheck.ID, items[0].ID)
	})

	s.Run("unknown ids", func() {
		_, err := s.store.FindSpaceVerification(s.ctx, id.VerificationID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *VerificationStoreSuite) TestUserVerifications() {
	subject := id.UserID(uuid.New())
	passport, err := models.NewVerificationUser(id.VerificationID(uuid.New()), subject, nil, "Passport", "https://docs/p.pdf", s.now)
	s.Require().NoError(err)
	license, err := models.NewVerificationUser(id.VerificationID(uuid.New()), id.UserID(uuid.New()), nil, "driving licence", "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateUserVerification(s.ctx, passport))
	s.Require().NoError(s.store.CreateUserVerification(s.ctx, license))

	items, total, err := s.store.ListUserVerifications(s.ctx, models.UserFilter{DocumentType: "PASS"}, paging.First())
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(passport.ID, items[0].ID)

	_, total, err = s.store.ListUserVerifications(s.ctx, models.UserFilter{UserID: &subject, Status: models.StatusRefused}, paging.First())
	s.Require().NoError(err)
	s.Zero(total)

	verifier := id.UserID(uuid.New())
	passport.VerifierID = &verifier
	s.Require().NoError(passport.Resolve(models.StatusRefused, s.now))
	s.Require().NoError(s.store.UpdateUserVerification(s.ctx, passport))
	found, err := s.store.FindUserVerification(s.ctx, passport.ID)
	s.Require().NoError(err)
	s.Equal(verifier, *found.VerifierID)
	s.Equal(models.StatusRefused, found.Status)
}
