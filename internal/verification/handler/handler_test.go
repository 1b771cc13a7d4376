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

	accountModels "coliving/internal/account/models"
	accountStore "coliving/internal/account/store"
	listingModels "coliving/internal/listing/models"
	listingStore "coliving/internal/listing/store"
	"coliving/internal/policy"
	"coliving/internal/verification/models"
	"coliving/internal/verification/service"
	"coliving/internal/verification/store"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/testutil"
)

type fixture struct {
	router  http.Handler
	space   id.ColivingSpaceID
	subject id.UserID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	listings := listingStore.NewInMemory()
	space, err := listingModels.NewColivingSpace(id.ColivingSpaceID(uuid.New()), testutil.NewUserID(), listingModels.SpaceDetails{Title: "Maison"}, now)
	require.NoError(t, err)
	require.NoError(t, listings.CreateColivingSpace(ctx, space))

	users := accountStore.NewInMemory()
	subject, err := accountModels.NewUser(testutil.NewUserID(), "owner@example.com", "hash", "", "", now)
	require.NoError(t, err)
	require.NoError(t, users.CreateUser(ctx, subject))

	svc := service.New(store.NewInMemory(), listings, users, policy.New(listings), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return fixture{router: r, space: space.ID, subject: subject.ID}
}

func TestSpaceVerificationOverHTTP(t *testing.T) {
	f := newFixture(t)
	employee := testutil.Employee()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/verification_spaces", map[string]any{
		"colivingSpaceId": f.space.String(),
		"notes":           "visit planned",
	})
	rr := testutil.DoRequest(f.router, testutil.WithActor(req, employee))
	require.Equal(t, http.StatusCreated, rr.Code)
	v := testutil.UnmarshalResponse[models.VerificationSpace](t, rr)
	assert.Equal(t, models.StatusPending, v.Status)
	path := "/api/verification_spaces/" + v.ID.String()

	t.Run("clients cannot read", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, path), testutil.Client()))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("staff validate with a lowercase status", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{"status": "validated"})
		rr := testutil.DoRequest(f.router, testutil.WithActor(req, employee))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "VALIDATED")
		testutil.AssertJSONHasKey(t, rr, "verifiedAt")
	})

	t.Run("second resolution is an invalid transition", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"status": "REFUSED"})
		rr := testutil.DoRequest(f.router, testutil.WithActor(req, employee))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_transition")
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPatch, path, `{}`)
		rr := testutil.DoRequest(f.router, testutil.WithActor(req, employee))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("list filters by status", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/verification_spaces?status=VALIDATED&colivingSpaceId="+f.space.String())
		rr := testutil.DoRequest(f.router, testutil.WithActor(req, employee))
		testutil.AssertStatusOK(t, rr)
		page := testutil.UnmarshalResponse[httputil.Collection[models.VerificationSpace]](t, rr)
		assert.Equal(t, 1, page.TotalItems)

		rr = testutil.DoRequest(f.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/api/verification_spaces?status=LOST"), employee))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestUserVerificationOverHTTP(t *testing.T) {
	f := newFixture(t)
	admin := testutil.Admin()

	t.Run("unknown subject is a validation error", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/verification_users", map[string]any{
			"userId":       uuid.NewString(),
			"documentType": "passport",
		})
		rr := testutil.DoRequest(f.router, testutil.WithActor(req, admin))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/verification_users", map[string]any{
		"userId":       f.subject.String(),
		"documentType": "Passport",
		"documentUrl":  "https://docs/p.pdf",
	})
	rr := testutil.DoRequest(f.router, testutil.WithActor(req, admin))
	require.Equal(t, http.StatusCreated, rr.Code)
	testutil.AssertJSONContains(t, rr, "userId", f.subject.String())

	t.Run("document type filter is a partial match", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/verification_users?documentType=pass")
		rr := testutil.DoRequest(f.router, testutil.WithActor(req, admin))
		testutil.AssertStatusOK(t, rr)
		page := testutil.UnmarshalResponse[httputil.Collection[models.VerificationUser]](t, rr)
		assert.Equal(t, 1, page.TotalItems)
	})

	t.Run("owners cannot list", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/api/verification_users"), testutil.Owner()))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}
