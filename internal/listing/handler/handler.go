// Package handler exposes listings and the reference catalog over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coliving/internal/identity"
	"coliving/internal/listing/models"
	"coliving/internal/listing/service"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/platform/paging"
	"coliving/pkg/requestcontext"
)

// Service is the CRUD surface of the listing service.
type Service interface {
	ListColivingSpaces(ctx context.Context, actor identity.Actor, filter models.SpaceFilter, page paging.Page) ([]*models.ColivingSpace, int, error)
	GetColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error)
	CreateColivingSpace(ctx context.Context, actor identity.Actor, details models.SpaceDetails) (*models.ColivingSpace, error)
	UpdateColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID, details models.SpaceDetails) (*models.ColivingSpace, error)
	ListColivingSpacesByAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID) ([]*models.ColivingSpace, error)

	ListPrivateSpaces(ctx context.Context, actor identity.Actor, filter models.RoomFilter, page paging.Page) ([]*models.PrivateSpace, int, error)
	GetPrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID) (*models.PrivateSpace, error)
	CreatePrivateSpace(ctx context.Context, actor identity.Actor, parentID id.ColivingSpaceID, details models.RoomDetails) (*models.PrivateSpace, error)
	UpdatePrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID, details models.RoomDetails) (*models.PrivateSpace, error)
	DeletePrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID) error

	ListCities(ctx context.Context, actor identity.Actor, page paging.Page) ([]*models.City, int, error)
	GetCity(ctx context.Context, actor identity.Actor, cityID id.CityID) (*models.City, error)
	CreateCity(ctx context.Context, actor identity.Actor, name string) (*models.City, error)
	RenameCity(ctx context.Context, actor identity.Actor, cityID id.CityID, name string) (*models.City, error)
	DeleteCity(ctx context.Context, actor identity.Actor, cityID id.CityID) error

	ListAmenities(ctx context.Context, actor identity.Actor, page paging.Page) ([]*models.Amenity, int, error)
	GetAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID) (*models.Amenity, error)
	CreateAmenity(ctx context.Context, actor identity.Actor, in service.AmenityInput) (*models.Amenity, error)
	UpdateAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID, in service.AmenityInput) (*models.Amenity, error)
	DeleteAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID) error
}

// Handler serves listing and catalog CRUD.
type Handler struct {
	listings Service
	logger   *slog.Logger
}

func New(listings Service, logger *slog.Logger) *Handler {
	return &Handler{listings: listings, logger: logger}
}

// Register mounts the CRUD routes. Paths are flat so the action routes can share
// the same prefixes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/coliving_spaces", h.handleListColivingSpaces)
	r.Post("/api/coliving_spaces", h.handleCreateColivingSpace)
	r.Get("/api/coliving_spaces/{id}", h.handleGetColivingSpace)
	r.Put("/api/coliving_spaces/{id}", h.handleUpdateColivingSpace)
	r.Patch("/api/coliving_spaces/{id}", h.handleUpdateColivingSpace)

	r.Get("/api/private_spaces", h.handleListPrivateSpaces)
	r.Post("/api/private_spaces", h.handleCreatePrivateSpace)
	r.Get("/api/private_spaces/{id}", h.handleGetPrivateSpace)
	r.Put("/api/private_spaces/{id}", h.handleUpdatePrivateSpace)
	r.Patch("/api/private_spaces/{id}", h.handleUpdatePrivateSpace)
	r.Delete("/api/private_spaces/{id}", h.handleDeletePrivateSpace)

	r.Get("/api/coliving_cities", h.handleListCities)
	r.Post("/api/coliving_cities", h.handleCreateCity)
	r.Get("/api/coliving_cities/{id}", h.handleGetCity)
	r.Put("/api/coliving_cities/{id}", h.handleRenameCity)
	r.Patch("/api/coliving_cities/{id}", h.handleRenameCity)
	r.Delete("/api/coliving_cities/{id}", h.handleDeleteCity)

	r.Get("/api/amenities", h.handleListAmenities)
	r.Post("/api/amenities", h.handleCreateAmenity)
	r.Get("/api/amenities/{id}", h.handleGetAmenity)
	r.Put("/api/amenities/{id}", h.handleUpdateAmenity)
	r.Patch("/api/amenities/{id}", h.handleUpdateAmenity)
	r.Delete("/api/amenities/{id}", h.handleDeleteAmenity)
	r.Get("/api/amenities/{id}/coliving_spaces", h.handleListSpacesByAmenity)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, action string, err error) {
	logError(ctx, h.logger, action, err)
	httputil.WriteError(w, err)
}

func (h *Handler) handleListColivingSpaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := spaceFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	spaces, total, err := h.listings.ListColivingSpaces(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list coliving spaces", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(spaces, page, total))
}

func (h *Handler) handleGetColivingSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spaceID, err := id.ParseColivingSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	space, err := h.listings.GetColivingSpace(ctx, identity.FromContext(ctx), spaceID)
	if err != nil {
		h.fail(ctx, w, "get coliving space", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, space)
}

func (h *Handler) handleCreateColivingSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.SpaceDetails](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	space, err := h.listings.CreateColivingSpace(ctx, identity.FromContext(ctx), *req)
	if err != nil {
		h.fail(ctx, w, "create coliving space", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, space)
}

func (h *Handler) handleUpdateColivingSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spaceID, err := id.ParseColivingSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SpaceDetails](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	space, err := h.listings.UpdateColivingSpace(ctx, identity.FromContext(ctx), spaceID, *req)
	if err != nil {
		h.fail(ctx, w, "update coliving space", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, space)
}

func (h *Handler) handleListSpacesByAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	amenityID, err := id.ParseAmenityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	spaces, err := h.listings.ListColivingSpacesByAmenity(ctx, identity.FromContext(ctx), amenityID)
	if err != nil {
		h.fail(ctx, w, "list coliving spaces by amenity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(spaces, paging.Page{Number: 1, Size: len(spaces)}, len(spaces)))
}

func (h *Handler) handleListPrivateSpaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := roomFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rooms, total, err := h.listings.ListPrivateSpaces(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list private spaces", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(rooms, page, total))
}

func (h *Handler) handleGetPrivateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID, err := id.ParsePrivateSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	room, err := h.listings.GetPrivateSpace(ctx, identity.FromContext(ctx), roomID)
	if err != nil {
		h.fail(ctx, w, "get private space", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) handleCreatePrivateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreatePrivateSpaceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	parentID, err := id.ParseColivingSpaceID(req.ColivingSpaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	room, err := h.listings.CreatePrivateSpace(ctx, identity.FromContext(ctx), parentID, req.RoomDetails)
	if err != nil {
		h.fail(ctx, w, "create private space", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, room)
}

func (h *Handler) handleUpdatePrivateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID, err := id.ParsePrivateSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RoomDetails](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	room, err := h.listings.UpdatePrivateSpace(ctx, identity.FromContext(ctx), roomID, *req)
	if err != nil {
		h.fail(ctx, w, "update private space", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) handleDeletePrivateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID, err := id.ParsePrivateSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.listings.DeletePrivateSpace(ctx, identity.FromContext(ctx), roomID); err != nil {
		h.fail(ctx, w, "delete private space", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cities, total, err := h.listings.ListCities(ctx, identity.FromContext(ctx), page)
	if err != nil {
		h.fail(ctx, w, "list cities", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(cities, page, total))
}

func (h *Handler) handleGetCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cityID, err := id.ParseCityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	city, err := h.listings.GetCity(ctx, identity.FromContext(ctx), cityID)
	if err != nil {
		h.fail(ctx, w, "get city", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, city)
}

func (h *Handler) handleCreateCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	city, err := h.listings.CreateCity(ctx, identity.FromContext(ctx), req.Name)
	if err != nil {
		h.fail(ctx, w, "create city", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, city)
}

func (h *Handler) handleRenameCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cityID, err := id.ParseCityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	city, err := h.listings.RenameCity(ctx, identity.FromContext(ctx), cityID, req.Name)
	if err != nil {
		h.fail(ctx, w, "rename city", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, city)
}

func (h *Handler) handleDeleteCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cityID, err := id.ParseCityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.listings.DeleteCity(ctx, identity.FromContext(ctx), cityID); err != nil {
		h.fail(ctx, w, "delete city", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAmenities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amenities, total, err := h.listings.ListAmenities(ctx, identity.FromContext(ctx), page)
	if err != nil {
		h.fail(ctx, w, "list amenities", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(amenities, page, total))
}

func (h *Handler) handleGetAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	amenityID, err := id.ParseAmenityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amenity, err := h.listings.GetAmenity(ctx, identity.FromContext(ctx), amenityID)
	if err != nil {
		h.fail(ctx, w, "get amenity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, amenity)
}

func (h *Handler) handleCreateAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AmenityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	amenity, err := h.listings.CreateAmenity(ctx, identity.FromContext(ctx), req.input())
	if err != nil {
		h.fail(ctx, w, "create amenity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, amenity)
}

func (h *Handler) handleUpdateAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	amenityID, err := id.ParseAmenityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmenityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	amenity, err := h.listings.UpdateAmenity(ctx, identity.FromContext(ctx), amenityID, req.input())
	if err != nil {
		h.fail(ctx, w, "update amenity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, amenity)
}

func (h *Handler) handleDeleteAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	amenityID, err := id.ParseAmenityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.listings.DeleteAmenity(ctx, identity.FromContext(ctx), amenityID); err != nil {
		h.fail(ctx, w, "delete amenity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
