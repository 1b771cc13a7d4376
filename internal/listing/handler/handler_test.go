package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coliving/internal/identity"
	"coliving/internal/listing/models"
	"coliving/internal/listing/service"
	"coliving/internal/listing/store"
	"coliving/internal/policy"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/testutil"
)

func newListingRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	listings := store.NewInMemory()
	svc := service.New(listings, listings, policy.New(listings), service.WithLogger(logger))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	NewActions(svc, logger).Register(r)
	return r
}

func TestColivingSpaceLifecycleOverHTTP(t *testing.T) {
	router := newListingRouter(t)
	owner := testutil.Owner()
	employee := testutil.Employee()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/coliving_spaces", map[string]any{
		"titleColivingSpace": "Villa Lumière",
		"housingType":        "house",
		"roomCount":          3,
	})
	rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
	require.Equal(t, http.StatusCreated, rr.Code)
	space := testutil.UnmarshalResponse[models.ColivingSpace](t, rr)
	assert.Equal(t, owner.ID, space.OwnerID)
	assert.False(t, space.IsActive)

	spacePath := "/api/coliving_spaces/" + space.ID.String()

	t.Run("anonymous visitors can read it", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, spacePath))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "titleColivingSpace", "Villa Lumière")
	})

	t.Run("anonymous visitors cannot create", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/coliving_spaces", map[string]any{"titleColivingSpace": "x"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("owner cannot publish", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, spacePath+"/publish")
		rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("employee publishes once", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPatch, spacePath+"/publish")
		rr := testutil.DoRequest(router, testutil.WithActor(req, employee))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "isActive", true)

		req = testutil.NewRequest(t, http.MethodPatch, spacePath+"/publish")
		rr = testutil.DoRequest(router, testutil.WithActor(req, employee))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_transition")
	})

	t.Run("owner can no longer edit", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, spacePath, map[string]any{"titleColivingSpace": "Renamed"})
		rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("list filters by isActive", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/coliving_spaces?isActive=true"))
		testutil.AssertStatusOK(t, rr)
		page := testutil.UnmarshalResponse[httputil.Collection[models.ColivingSpace]](t, rr)
		assert.Equal(t, 1, page.TotalItems)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/coliving_spaces?isActive=maybe"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestPrivateSpaceOverHTTP(t *testing.T) {
	router := newListingRouter(t)
	owner := testutil.Owner()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/coliving_spaces", map[string]any{"titleColivingSpace": "Maison"})
	rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
	require.Equal(t, http.StatusCreated, rr.Code)
	space := testutil.UnmarshalResponse[models.ColivingSpace](t, rr)

	t.Run("missing parent id is a validation error", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/private_spaces", map[string]any{"titlePrivateSpace": "Chambre", "capacity": 1})
		rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/private_spaces", map[string]any{"colivingSpaceId": space.ID.String(), "isActive": true})
		rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	req = testutil.NewJSONRequest(t, http.MethodPost, "/api/private_spaces", map[string]any{
		"colivingSpaceId":   space.ID.String(),
		"titlePrivateSpace": "Chambre",
		"capacity":          2,
		"pricePerMonth":     650,
	})
	rr = testutil.DoRequest(router, testutil.WithActor(req, owner))
	require.Equal(t, http.StatusCreated, rr.Code)
	room := testutil.UnmarshalResponse[models.PrivateSpace](t, rr)
	assert.Equal(t, space.ID, room.ColivingSpaceID)

	t.Run("publishing under an unpublished parent is forbidden", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/api/private_spaces/"+room.ID.String()+"/publish")
		rr := testutil.DoRequest(router, testutil.WithActor(req, testutil.Admin()))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("only admins delete", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/api/private_spaces/"+room.ID.String())
		rr := testutil.DoRequest(router, testutil.WithActor(req, owner))
		testutil.AssertStatus(t, rr, http.StatusForbidden)

		req = testutil.NewRequest(t, http.MethodDelete, "/api/private_spaces/"+room.ID.String())
		rr = testutil.DoRequest(router, testutil.WithActor(req, testutil.Admin()))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}

func TestCatalogOverHTTP(t *testing.T) {
	router := newListingRouter(t)
	staff := identity.NewActor(testutil.NewUserID(), identity.RoleEmployee)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/amenities", map[string]string{"name": " "})
	rr := testutil.DoRequest(router, testutil.WithActor(req, staff))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/api/amenities", map[string]string{"name": "Wifi", "amenityType": "comfort"})
	rr = testutil.DoRequest(router, testutil.WithActor(req, staff))
	require.Equal(t, http.StatusCreated, rr.Code)
	amenity := testutil.UnmarshalResponse[models.Amenity](t, rr)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/api/coliving_cities", map[string]string{"name": "Nantes"})
	rr = testutil.DoRequest(router, testutil.WithActor(req, testutil.Client()))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/amenities/"+amenity.ID.String()+"/coliving_spaces"))
	testutil.AssertStatusOK(t, rr)
	page := testutil.UnmarshalResponse[httputil.Collection[models.ColivingSpace]](t, rr)
	assert.Empty(t, page.Items)
}
