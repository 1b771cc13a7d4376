package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coliving/internal/listing/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type ListingStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestListingStoreSuite(t *testing.T) {
	suite.Run(t, new(ListingStoreSuite))
}

func (s *ListingStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
}

func (s *ListingStoreSuite) newSpace(owner id.UserID, amenities ...id.AmenityID) *models.ColivingSpace {
	s.now = s.now.Add(time.Minute)
	space, err := models.NewColivingSpace(id.ColivingSpaceID(uuid.New()), owner, models.SpaceDetails{
		Title:      "Maison",
		AmenityIDs: amenities,
	}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateColivingSpace(s.ctx, space))
	return space
}

func (s *ListingStoreSuite) TestColivingSpaceRoundTrip() {
	owner := id.UserID(uuid.New())
	space := s.newSpace(owner)

	s.Run("find returns a copy", func() {
		found, err := s.store.FindColivingSpace(s.ctx, space.ID)
		s.Require().NoError(err)
		found.Title = "changed"

		again, err := s.store.FindColivingSpace(s.ctx, space.ID)
		s.Require().NoError(err)
		s.Equal("Maison", again.Title)
	})

	s.Run("update persists publication", func() {
		locked, err := s.store.LockColivingSpace(s.ctx, space.ID)
		s.Require().NoError(err)
		s.Require().NoError(locked.Publish(s.now))
		s.Require().NoError(s.store.UpdateColivingSpace(s.ctx, locked))

		found, err := s.store.FindColivingSpace(s.ctx, space.ID)
		s.Require().NoError(err)
		s.True(found.IsActive)
		s.Equal(owner, found.OwnerID)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindColivingSpace(s.ctx, id.ColivingSpaceID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ListingStoreSuite) TestListColivingSpacesFiltersBeforePaging() {
	owner := id.UserID(uuid.New())
	other := id.UserID(uuid.New())
	for range 3 {
		s.newSpace(owner)
	}
	s.newSpace(other)

	page, total, err := s.store.ListColivingSpaces(s.ctx, models.SpaceFilter{OwnerID: &owner}, paging.Page{Number: 2, Size: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(page, 1)
	s.Equal(owner, page[0].OwnerID)
}

func (s *ListingStoreSuite) TestAmenityInverseLookup() {
	wifi := &models.Amenity{ID: id.AmenityID(uuid.New()), Name: "Wifi"}
	s.Require().NoError(s.store.CreateAmenity(s.ctx, wifi))

	withWifi := s.newSpace(id.UserID(uuid.New()), wifi.ID)
	s.newSpace(id.UserID(uuid.New()))

	spaces, err := s.store.ListColivingSpacesByAmenity(s.ctx, wifi.ID)
	s.Require().NoError(err)
	s.Require().Len(spaces, 1)
	s.Equal(withWifi.ID, spaces[0].ID)

	s.Run("deleting the amenity unlinks it", func() {
		s.Require().NoError(s.store.DeleteAmenity(s.ctx, wifi.ID))
		spaces, err := s.store.ListColivingSpacesByAmenity(s.ctx, wifi.ID)
		s.Require().NoError(err)
		s.Empty(spaces)

		found, err := s.store.FindColivingSpace(s.ctx, withWifi.ID)
		s.Require().NoError(err)
		s.Empty(found.AmenityIDs)
	})
}

func (s *ListingStoreSuite) TestPrivateSpaces() {
	parent := s.newSpace(id.UserID(uuid.New()))
	room, err := models.NewPrivateSpace(id.PrivateSpaceID(uuid.New()), parent.ID, models.RoomDetails{Title: "Chambre", Capacity: 1}, s.now)
	s.Require().NoError(err)

	s.Run("requires an existing parent", func() {
		orphan, err := models.NewPrivateSpace(id.PrivateSpaceID(uuid.New()), id.ColivingSpaceID(uuid.New()), models.RoomDetails{Title: "x", Capacity: 1}, s.now)
		s.Require().NoError(err)
		s.ErrorIs(s.store.CreatePrivateSpace(s.ctx, orphan), sentinel.ErrNotFound)
	})

	s.Require().NoError(s.store.CreatePrivateSpace(s.ctx, room))

	rooms, total, err := s.store.ListPrivateSpaces(s.ctx, models.RoomFilter{ColivingSpaceID: &parent.ID}, paging.First())
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(room.ID, rooms[0].ID)

	s.Require().NoError(s.store.DeletePrivateSpace(s.ctx, room.ID))
	_, err = s.store.FindPrivateSpace(s.ctx, room.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ListingStoreSuite) TestCities() {
	paris := &models.City{ID: id.CityID(uuid.New()), Name: "Paris"}
	s.Require().NoError(s.store.CreateCity(s.ctx, paris))

	s.Run("names are unique ignoring case", func() {
		err := s.store.CreateCity(s.ctx, &models.City{ID: id.CityID(uuid.New()), Name: "PARIS"})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("deleting a city detaches spaces", func() {
		space := s.newSpace(id.UserID(uuid.New()))
		space.CityID = &paris.ID
		s.Require().NoError(s.store.UpdateColivingSpace(s.ctx, space))

		s.Require().NoError(s.store.DeleteCity(s.ctx, paris.ID))
		found, err := s.store.FindColivingSpace(s.ctx, space.ID)
		s.Require().NoError(err)
		s.Nil(found.CityID)
	})
}

func (s *ListingStoreSuite) TestMissingAmenities() {
	known := &models.Amenity{ID: id.AmenityID(uuid.New()), Name: "Laundry"}
	s.Require().NoError(s.store.CreateAmenity(s.ctx, known))
	unknown := id.AmenityID(uuid.New())

	missing, err := s.store.MissingAmenities(s.ctx, []id.AmenityID{known.ID, unknown})
	s.Require().NoError(err)
	s.Equal([]id.AmenityID{unknown}, missing)
}
