package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	listingModels "coliving/internal/listing/models"
	listingStore "coliving/internal/listing/store"
	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type ReservationStoreSuite struct {
	suite.Suite
	ctx      context.Context
	listings *listingStore.InMemory
	store    *InMemory
	now      time.Time
}

func TestReservationStoreSuite(t *testing.T) {
	suite.Run(t, new(ReservationStoreSuite))
}

func (s *ReservationStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.listings = listingStore.NewInMemory()
	s.store = NewInMemory(policy.NewResolver(s.listings))
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ReservationStoreSuite) newRoom(owner id.UserID) id.PrivateSpaceID {
	space, err := listingModels.NewColivingSpace(id.ColivingSpaceID(uuid.New()), owner, listingModels.SpaceDetails{Title: "Maison"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.listings.CreateColivingSpace(s.ctx, space))
	room, err := listingModels.NewPrivateSpace(id.PrivateSpaceID(uuid.New()), space.ID, listingModels.RoomDetails{Title: "Chambre", Capacity: 1}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.listings.CreatePrivateSpace(s.ctx, room))
	return room.ID
}

func (s *ReservationStoreSuite) reserve(room id.PrivateSpaceID, client id.UserID) *models.Reservation {
	s.now = s.now.Add(time.Minute)
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	r, err := models.NewReservation(id.ReservationID(uuid.New()), room, client, start, start.AddDate(0, 1, 0), false, 10, 650, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateReservation(s.ctx, r))
	return r
}

// One owner O with a room, one other owner, clients C1 and C2.
func (s *ReservationStoreSuite) TestScopedListing() {
	owner := id.UserID(uuid.New())
	otherOwner := id.UserID(uuid.New())
	c1 := id.UserID(uuid.New())
	c2 := id.UserID(uuid.New())

	ownedRoom := s.newRoom(owner)
	otherRoom := s.newRoom(otherOwner)

	s.reserve(ownedRoom, c1)
	s.reserve(ownedRoom, c2)
	s.reserve(otherRoom, c1)

	cases := []struct {
		name  string
		scope policy.Scope
		want  int
	}{
		{"staff see all", policy.Scope{Kind: policy.ScopeAll}, 3},
		{"client sees own", policy.Scope{Kind: policy.ScopeClient, UserID: c1}, 2},
		{"owner sees reservations on their spaces", policy.Scope{Kind: policy.ScopeOwner, UserID: owner}, 2},
		{"nobody sees nothing", policy.Scope{Kind: policy.ScopeNone}, 0},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			items, total, err := s.store.ListReservations(s.ctx, tc.scope, models.Filter{}, paging.First())
			s.Require().NoError(err)
			s.Equal(tc.want, total)
			s.Len(items, tc.want)
		})
	}

	s.Run("scope applies before paging", func() {
		items, total, err := s.store.ListReservations(s.ctx, policy.Scope{Kind: policy.ScopeClient, UserID: c1},
			models.Filter{}, paging.Page{Number: 2, Size: 1})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Require().Len(items, 1)
		s.Equal(c1, items[0].ClientID)
	})

	s.Run("filter by room", func() {
		_, total, err := s.store.ListReservations(s.ctx, policy.Scope{Kind: policy.ScopeAll},
			models.Filter{PrivateSpaceID: &otherRoom}, paging.First())
		s.Require().NoError(err)
		s.Equal(1, total)
	})

	s.Run("count by room", func() {
		n, err := s.store.CountByPrivateSpace(s.ctx, ownedRoom)
		s.Require().NoError(err)
		s.Equal(2, n)
	})
}

func (s *ReservationStoreSuite) TestUpdateAndDelete() {
	r := s.reserve(s.newRoom(id.UserID(uuid.New())), id.UserID(uuid.New()))

	locked, err := s.store.LockReservation(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().NoError(locked.TransitionTo(models.StatusConfirmed, s.now))
	s.Require().NoError(s.store.UpdateReservation(s.ctx, locked))

	found, err := s.store.FindReservation(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, found.Status)

	review, err := models.NewReview(id.ReviewID(uuid.New()), r.ID, r.ClientID, 4, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateReview(s.ctx, review))

	s.Require().NoError(s.store.DeleteReservation(s.ctx, r.ID))
	_, err = s.store.FindReview(s.ctx, review.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.DeleteReservation(s.ctx, r.ID), sentinel.ErrNotFound)
}

func (s *ReservationStoreSuite) TestOneReviewPerReservation() {
	r := s.reserve(s.newRoom(id.UserID(uuid.New())), id.UserID(uuid.New()))

	first, err := models.NewReview(id.ReviewID(uuid.New()), r.ID, r.ClientID, 5, "great", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateReview(s.ctx, first))

	second, err := models.NewReview(id.ReviewID(uuid.New()), r.ID, r.ClientID, 1, "changed my mind", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateReview(s.ctx, second), sentinel.ErrConflict)

	orphan, err := models.NewReview(id.ReviewID(uuid.New()), id.ReservationID(uuid.New()), r.ClientID, 3, "", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateReview(s.ctx, orphan), sentinel.ErrNotFound)

	items, total, err := s.store.ListReviews(s.ctx, models.ReviewFilter{ReservationID: &r.ID}, paging.First())
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(first.ID, items[0].ID)
}
