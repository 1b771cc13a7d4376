// Package handler exposes reservations and reviews over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coliving/internal/identity"
	"coliving/internal/reservation/models"
	"coliving/internal/reservation/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/platform/paging"
	"coliving/pkg/requestcontext"
)

type Service interface {
	ListReservations(ctx context.Context, actor identity.Actor, filter models.Filter, page paging.Page) ([]*models.Reservation, int, error)
	GetReservation(ctx context.Context, actor identity.Actor, reservationID id.ReservationID) (*models.Reservation, error)
	CreateReservation(ctx context.Context, actor identity.Actor, in service.CreateInput) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, actor identity.Actor, reservationID id.ReservationID, next models.Status) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, actor identity.Actor, reservationID id.ReservationID) error

	ListReviews(ctx context.Context, actor identity.Actor, filter models.ReviewFilter, page paging.Page) ([]*models.Review, int, error)
	GetReview(ctx context.Context, actor identity.Actor, reviewID id.ReviewID) (*models.Review, error)
	CreateReview(ctx context.Context, actor identity.Actor, in service.ReviewInput) (*models.Review, error)
	DeleteReview(ctx context.Context, actor identity.Actor, reviewID id.ReviewID) error
}

type Handler struct {
	reservations Service
	logger       *slog.Logger
}

func New(reservations Service, logger *slog.Logger) *Handler {
	return &Handler{reservations: reservations, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/reservations", h.handleList)
	r.Post("/api/reservations", h.handleCreate)
	r.Get("/api/reservations/{id}", h.handleGet)
	r.Patch("/api/reservations/{id}", h.handleUpdateStatus)
	r.Delete("/api/reservations/{id}", h.handleDelete)

	r.Get("/api/reviews", h.handleListReviews)
	r.Post("/api/reviews", h.handleCreateReview)
	r.Get("/api/reviews/{id}", h.handleGetReview)
	r.Delete("/api/reviews/{id}", h.handleDeleteReview)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, action string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "failed to "+action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, action+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := reservationFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, total, err := h.reservations.ListReservations(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list reservations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(items, page, total))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservationID, err := id.ParseReservationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.reservations.GetReservation(ctx, identity.FromContext(ctx), reservationID)
	if err != nil {
		h.fail(ctx, w, "get reservation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateReservationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	in, err := req.input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.reservations.CreateReservation(ctx, identity.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create reservation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservationID, err := id.ParseReservationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateReservationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.reservations.UpdateReservationStatus(ctx, identity.FromContext(ctx), reservationID, models.Status(req.Status))
	if err != nil {
		h.fail(ctx, w, "update reservation status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservationID, err := id.ParseReservationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.reservations.DeleteReservation(ctx, identity.FromContext(ctx), reservationID); err != nil {
		h.fail(ctx, w, "delete reservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := reviewFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, total, err := h.reservations.ListReviews(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list reviews", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(items, page, total))
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rv, err := h.reservations.GetReview(ctx, identity.FromContext(ctx), reviewID)
	if err != nil {
		h.fail(ctx, w, "get review", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rv)
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	reservationID, err := id.ParseReservationID(req.ReservationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rv, err := h.reservations.CreateReview(ctx, identity.FromContext(ctx), service.ReviewInput{
		ReservationID: reservationID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		h.fail(ctx, w, "create review", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rv)
}

func (h *Handler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.reservations.DeleteReview(ctx, identity.FromContext(ctx), reviewID); err != nil {
		h.fail(ctx, w, "delete review", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
