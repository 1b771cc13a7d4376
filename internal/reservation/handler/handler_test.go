package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coliving/internal/identity"
	listingModels "coliving/internal/listing/models"
	listingStore "coliving/internal/listing/store"
	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	"coliving/internal/reservation/service"
	"coliving/internal/reservation/store"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/testutil"
)

type fixture struct {
	router http.Handler
	owner  identity.Actor
	room   id.PrivateSpaceID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	owner := testutil.Owner()

	listings := listingStore.NewInMemory()
	space, err := listingModels.NewColivingSpace(id.ColivingSpaceID(uuid.New()), owner.ID, listingModels.SpaceDetails{Title: "Maison"}, now)
	require.NoError(t, err)
	require.NoError(t, space.Publish(now))
	require.NoError(t, listings.CreateColivingSpace(ctx, space))
	room, err := listingModels.NewPrivateSpace(id.PrivateSpaceID(uuid.New()), space.ID, listingModels.RoomDetails{Title: "Chambre", Capacity: 1}, now)
	require.NoError(t, err)
	require.NoError(t, room.Publish(now))
	require.NoError(t, listings.CreatePrivateSpace(ctx, room))

	svc := service.New(store.NewInMemory(policy.NewResolver(listings)), listings, policy.New(listings), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return fixture{router: r, owner: owner, room: room.ID}
}

func TestReservationFlowOverHTTP(t *testing.T) {
	f := newFixture(t)
	client := testutil.Client()
	var reservation models.Reservation

	testutil.Given(t, "a published room", func(t *testing.T) {
		testutil.When(t, "a client books it with calendar dates", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/reservations", map[string]any{
				"privateSpaceId": f.room.String(),
				"startDate":      "2025-09-01",
				"endDate":        "2025-10-01",
				"totalPrice":     650,
			})
			rr := testutil.DoRequest(f.router, testutil.WithActor(req, client))
			require.Equal(t, http.StatusCreated, rr.Code)
			reservation = *testutil.UnmarshalResponse[models.Reservation](t, rr)

			testutil.Then(t, "the reservation is pending and belongs to the client", func(t *testing.T) {
				assert.Equal(t, models.StatusPending, reservation.Status)
				assert.Equal(t, client.ID, reservation.ClientID)
			})
		})

		testutil.When(t, "an anonymous visitor tries to book", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/reservations", map[string]any{
				"privateSpaceId": f.room.String(), "startDate": "2025-09-01", "endDate": "2025-10-01",
			})
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "the request is forbidden", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
			})
		})

		testutil.When(t, "the dates are malformed", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/reservations", map[string]any{
				"privateSpaceId": f.room.String(), "startDate": "01/09/2025", "endDate": "2025-10-01",
			})
			rr := testutil.DoRequest(f.router, testutil.WithActor(req, client))

			testutil.Then(t, "it is a validation error", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
			})
		})
	})

	path := "/api/reservations/" + reservation.ID.String()

	testutil.Given(t, "a pending reservation", func(t *testing.T) {
		testutil.When(t, "the client tries to confirm it", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]string{"status": "CONFIRMED"})
			rr := testutil.DoRequest(f.router, testutil.WithActor(req, client))

			testutil.Then(t, "only the owner or staff may", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusForbidden)
			})
		})

		testutil.When(t, "the owner confirms it", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]string{"status": "confirmed"})
			rr := testutil.DoRequest(f.router, testutil.WithActor(req, f.owner))

			testutil.Then(t, "the status changes", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "status", "CONFIRMED")
			})
		})

		testutil.When(t, "the owner tries to move it back to pending", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]string{"status": "PENDING"})
			rr := testutil.DoRequest(f.router, testutil.WithActor(req, f.owner))

			testutil.Then(t, "the lifecycle rejects it", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_transition")
			})
		})
	})

	testutil.Given(t, "the reservation exists", func(t *testing.T) {
		testutil.When(t, "a stranger lists reservations", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/api/reservations"), testutil.Client()))

			testutil.Then(t, "the collection is empty", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				page := testutil.UnmarshalResponse[httputil.Collection[models.Reservation]](t, rr)
				assert.Equal(t, 0, page.TotalItems)
			})
		})

		testutil.When(t, "the client reviews the stay twice", func(t *testing.T) {
			body := map[string]any{"reservationId": reservation.ID.String(), "rating": 5, "comment": "Lovely"}
			first := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/api/reviews", body), client))
			second := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/api/reviews", body), client))

			testutil.Then(t, "the second review conflicts", func(t *testing.T) {
				testutil.AssertStatus(t, first, http.StatusCreated)
				testutil.AssertStatusAndError(t, second, http.StatusConflict, "conflict")
			})
		})

		testutil.When(t, "staff delete the reservation", func(t *testing.T) {
			owner := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewRequest(t, http.MethodDelete, path), f.owner))
			staff := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewRequest(t, http.MethodDelete, path), testutil.Employee()))

			testutil.Then(t, "only staff succeed", func(t *testing.T) {
				testutil.AssertStatus(t, owner, http.StatusForbidden)
				testutil.AssertStatus(t, staff, http.StatusNoContent)
			})
		})
	})
}

func TestReservationFilterRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	req := testutil.NewRequest(t, http.MethodGet, "/api/reservations?status=archived")
	rr := testutil.DoRequest(f.router, testutil.WithActor(req, testutil.Employee()))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}
