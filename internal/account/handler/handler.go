// Package handler exposes accounts, login and logout over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coliving/internal/account/models"
	"coliving/internal/account/service"
	"coliving/internal/identity"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/platform/paging"
	"coliving/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, actor identity.Actor, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*service.Token, error)
	Logout(ctx context.Context, actor identity.Actor) error
	GetUser(ctx context.Context, actor identity.Actor, userID id.UserID) (*models.User, error)
	ListUsers(ctx context.Context, actor identity.Actor, filter models.Filter, page paging.Page) ([]*models.User, int, error)
	UpdateUser(ctx context.Context, actor identity.Actor, userID id.UserID, in service.UpdateInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor identity.Actor, userID id.UserID) error
}

type Handler struct {
	accounts Service
	logger   *slog.Logger
}

func New(accounts Service, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/login_check", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Get("/api/users", h.handleList)
	r.Post("/api/users", h.handleRegister)
	r.Get("/api/users/{id}", h.handleGet)
	r.Put("/api/users/{id}", h.handleUpdate)
	r.Patch("/api/users/{id}", h.handleUpdate)
	r.Delete("/api/users/{id}", h.handleDelete)
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

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tok, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(ctx, w, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tok)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.accounts.Logout(ctx, identity.FromContext(ctx)); err != nil {
		h.fail(ctx, w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
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
	items, total, err := h.accounts.ListUsers(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(items, page, total))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	u, err := h.accounts.Register(ctx, identity.FromContext(ctx), req.input())
	if err != nil {
		h.fail(ctx, w, "register user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.accounts.GetUser(ctx, identity.FromContext(ctx), userID)
	if err != nil {
		h.fail(ctx, w, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	in, err := req.input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.accounts.UpdateUser(ctx, identity.FromContext(ctx), userID, in)
	if err != nil {
		h.fail(ctx, w, "update user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.accounts.DeleteUser(ctx, identity.FromContext(ctx), userID); err != nil {
		h.fail(ctx, w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
