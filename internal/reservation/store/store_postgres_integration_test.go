//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	pgplatform "coliving/internal/platform/postgres"
	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	"coliving/internal/reservation/store"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/testutil/containers"
)

type PostgresReservationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresReservationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresReservationSuite))
}

func (s *PostgresReservationSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresReservationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"reviews", "reservations", "private_spaces", "coliving_spaces", "users"))
}

func (s *PostgresReservationSuite) newUser() id.UserID {
	u := uuid.New()
	_, err := s.postgres.Exec(context.Background(), `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at)
		VALUES ($1, $2, 'x', 'Test', 'User', now())`, u, u.String()+"@example.com")
	s.Require().NoError(err)
	return id.UserID(u)
}

func (s *PostgresReservationSuite) newRoom(owner id.UserID) id.PrivateSpaceID {
	ctx := context.Background()
	space, room := uuid.New(), uuid.New()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO coliving_spaces (id, owner_id, title, created_at) VALUES ($1, $2, 'Maison', now())`, space, uuid.UUID(owner))
	s.Require().NoError(err)
	_, err = s.postgres.Exec(ctx, `
		INSERT INTO private_spaces (id, coliving_space_id, title, capacity, is_active, created_at)
		VALUES ($1, $2, 'Chambre', 1, TRUE, now())`, room, space)
	s.Require().NoError(err)
	return id.PrivateSpaceID(room)
}

func (s *PostgresReservationSuite) reserve(room id.PrivateSpaceID, client id.UserID) *models.Reservation {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	r, err := models.NewReservation(id.ReservationID(uuid.New()), room, client, start, start.AddDate(0, 1, 0),
		true, 12.5, 800, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateReservation(context.Background(), r))
	return r
}

func (s *PostgresReservationSuite) TestOwnerScopeJoinsThroughSpaces() {
	ctx := context.Background()
	owner, other := s.newUser(), s.newUser()
	c1, c2 := s.newUser(), s.newUser()
	room, otherRoom := s.newRoom(owner), s.newRoom(other)

	s.reserve(room, c1)
	s.reserve(room, c2)
	s.reserve(otherRoom, c1)

	_, total, err := s.store.ListReservations(ctx, policy.Scope{Kind: policy.ScopeOwner, UserID: owner}, models.Filter{}, paging.First())
	s.Require().NoError(err)
	s.Equal(2, total)

	items, total, err := s.store.ListReservations(ctx, policy.Scope{Kind: policy.ScopeClient, UserID: c1}, models.Filter{}, paging.Page{Number: 1, Size: 1})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(items, 1)

	_, total, err = s.store.ListReservations(ctx, policy.Scope{Kind: policy.ScopeNone}, models.Filter{}, paging.First())
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *PostgresReservationSuite) TestStatusUpdateUnderLock() {
	ctx := context.Background()
	r := s.reserve(s.newRoom(s.newUser()), s.newUser())

	err := pgplatform.NewTxRunner(s.postgres.DB).RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.store.LockReservation(ctx, r.ID)
		if err != nil {
			return err
		}
		if err := locked.TransitionTo(models.StatusConfirmed, time.Now().UTC()); err != nil {
			return err
		}
		return s.store.UpdateReservation(ctx, locked)
	})
	s.Require().NoError(err)

	found, err := s.store.FindReservation(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, found.Status)
	s.True(found.IsForTwo)
	s.InDelta(12.5, found.LodgingTax, 0.001)
}

func (s *PostgresReservationSuite) TestReviewUniqueness() {
	ctx := context.Background()
	client := s.newUser()
	r := s.reserve(s.newRoom(s.newUser()), client)

	first, err := models.NewReview(id.ReviewID(uuid.New()), r.ID, client, 5, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateReview(ctx, first))

	second, err := models.NewReview(id.ReviewID(uuid.New()), r.ID, client, 2, "", time.Now().UTC())
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateReview(ctx, second), sentinel.ErrConflict)

	n, err := s.store.CountByPrivateSpace(ctx, r.PrivateSpaceID)
	s.Require().NoError(err)
	s.Equal(1, n)
}
