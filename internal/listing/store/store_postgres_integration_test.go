//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coliving/internal/listing/models"
	"coliving/internal/listing/store"
	pgplatform "coliving/internal/platform/postgres"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	tx       *pgplatform.TxRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.tx = pgplatform.NewTxRunner(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"private_space_amenities", "coliving_space_amenities", "private_spaces",
		"coliving_spaces", "amenities", "coliving_cities", "users")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newOwner() id.UserID {
	owner := uuid.New()
	_, err := s.postgres.Exec(context.Background(), `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at)
		VALUES ($1, $2, 'x', 'Owner', 'Test', now())`, owner, owner.String()+"@example.com")
	s.Require().NoError(err)
	return id.UserID(owner)
}

func (s *PostgresStoreSuite) newSpace(owner id.UserID, amenities ...id.AmenityID) *models.ColivingSpace {
	space, err := models.NewColivingSpace(id.ColivingSpaceID(uuid.New()), owner, models.SpaceDetails{
		Title:      "Maison " + uuid.NewString()[:8],
		AmenityIDs: amenities,
	}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateColivingSpace(context.Background(), space))
	return space
}

func (s *PostgresStoreSuite) TestRoundTripWithAmenities() {
	ctx := context.Background()
	wifi := &models.Amenity{ID: id.AmenityID(uuid.New()), Name: "Wifi"}
	s.Require().NoError(s.store.CreateAmenity(ctx, wifi))

	space := s.newSpace(s.newOwner(), wifi.ID)

	found, err := s.store.FindColivingSpace(ctx, space.ID)
	s.Require().NoError(err)
	s.Equal(space.OwnerID, found.OwnerID)
	s.Equal([]id.AmenityID{wifi.ID}, found.AmenityIDs)
	s.False(found.IsActive)

	byAmenity, err := s.store.ListColivingSpacesByAmenity(ctx, wifi.ID)
	s.Require().NoError(err)
	s.Require().Len(byAmenity, 1)
	s.Equal(space.ID, byAmenity[0].ID)

	_, err = s.store.FindColivingSpace(ctx, id.ColivingSpaceID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltersBeforePaging() {
	ctx := context.Background()
	owner := s.newOwner()
	for range 3 {
		s.newSpace(owner)
	}
	s.newSpace(s.newOwner())

	spaces, total, err := s.store.ListColivingSpaces(ctx, models.SpaceFilter{OwnerID: &owner}, paging.Page{Number: 1, Size: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(spaces, 2)
}

// TestConcurrentPublishSerializes runs many publishers against one row. The
// FOR UPDATE lock lets exactly one of them see the draft state.
func (s *PostgresStoreSuite) TestConcurrentPublishSerializes() {
	space := s.newSpace(s.newOwner())
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		published atomic.Int32
		rejected  atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(context.Background(), func(ctx context.Context) error {
				locked, err := s.store.LockColivingSpace(ctx, space.ID)
				if err != nil {
					return err
				}
				if err := locked.Publish(time.Now()); err != nil {
					return err
				}
				return s.store.UpdateColivingSpace(ctx, locked)
			})
			if err == nil {
				published.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), published.Load())
	s.Equal(int32(goroutines-1), rejected.Load())
}

func (s *PostgresStoreSuite) TestCityNameUnique() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateCity(ctx, &models.City{ID: id.CityID(uuid.New()), Name: "Lyon"}))
	err := s.store.CreateCity(ctx, &models.City{ID: id.CityID(uuid.New()), Name: "Lyon"})
	s.ErrorIs(err, sentinel.ErrConflict)
}
