// Package handler exposes listing and identity verifications over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coliving/internal/identity"
	"coliving/internal/verification/models"
	"coliving/internal/verification/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/platform/paging"
	"coliving/pkg/requestcontext"
)

type Service interface {
	ListSpaceVerifications(ctx context.Context, actor identity.Actor, filter models.SpaceFilter, page paging.Page) ([]*models.VerificationSpace, int, error)
	GetSpaceVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID) (*models.VerificationSpace, error)
	CreateSpaceVerification(ctx context.Context, actor identity.Actor, in service.SpaceInput) (*models.VerificationSpace, error)
	UpdateSpaceVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID, in service.UpdateInput) (*models.VerificationSpace, error)

	ListUserVerifications(ctx context.Context, actor identity.Actor, filter models.UserFilter, page paging.Page) ([]*models.VerificationUser, int, error)
	GetUserVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID) (*models.VerificationUser, error)
	CreateUserVerification(ctx context.Context, actor identity.Actor, in service.UserInput) (*models.VerificationUser, error)
	UpdateUserVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID, in service.UpdateInput) (*models.VerificationUser, error)
}

type Handler struct {
	verifications Service
	logger        *slog.Logger
}

func New(verifications Service, logger *slog.Logger) *Handler {
	return &Handler{verifications: verifications, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/verification_spaces", h.handleListSpaces)
	r.Post("/api/verification_spaces", h.handleCreateSpace)
	r.Get("/api/verification_spaces/{id}", h.handleGetSpace)
	r.Put("/api/verification_spaces/{id}", h.handleUpdateSpace)
	r.Patch("/api/verification_spaces/{id}", h.handleUpdateSpace)

	r.Get("/api/verification_users", h.handleListUsers)
	r.Post("/api/verification_users", h.handleCreateUser)
	r.Get("/api/verification_users/{id}", h.handleGetUser)
	r.Put("/api/verification_users/{id}", h.handleUpdateUser)
	r.Patch("/api/verification_users/{id}", h.handleUpdateUser)
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

func (h *Handler) handleListSpaces(w http.ResponseWriter, r *http.Request) {
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
	items, total, err := h.verifications.ListSpaceVerifications(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list space verifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(items, page, total))
}

func (h *Handler) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.verifications.GetSpaceVerification(ctx, identity.FromContext(ctx), vID)
	if err != nil {
		h.fail(ctx, w, "get space verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateSpaceVerificationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	in, err := req.input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.verifications.CreateSpaceVerification(ctx, identity.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create space verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleUpdateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateVerificationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	v, err := h.verifications.UpdateSpaceVerification(ctx, identity.FromContext(ctx), vID, req.input())
	if err != nil {
		h.fail(ctx, w, "update space verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := userFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, total, err := h.verifications.ListUserVerifications(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list user verifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(items, page, total))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.verifications.GetUserVerification(ctx, identity.FromContext(ctx), vID)
	if err != nil {
		h.fail(ctx, w, "get user verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateUserVerificationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	in, err := req.input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.verifications.CreateUserVerification(ctx, identity.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "create user verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateVerificationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	v, err := h.verifications.UpdateUserVerification(ctx, identity.FromContext(ctx), vID, req.input())
	if err != nil {
		h.fail(ctx, w, "update user verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}
