// Package handler exposes direct messages over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coliving/internal/identity"
	"coliving/internal/messaging/models"
	"coliving/internal/messaging/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/platform/paging"
	"coliving/pkg/requestcontext"
)

type Service interface {
	ListMessages(ctx context.Context, actor identity.Actor, filter models.Filter, page paging.Page) ([]*models.Message, int, error)
	GetMessage(ctx context.Context, actor identity.Actor, msgID id.MessageID) (*models.Message, error)
	SendMessage(ctx context.Context, actor identity.Actor, in service.SendInput) (*models.Message, error)
	MarkSeen(ctx context.Context, actor identity.Actor, msgID id.MessageID) (*models.Message, error)
}

type Handler struct {
	messages Service
	logger   *slog.Logger
}

func New(messages Service, logger *slog.Logger) *Handler {
	return &Handler{messages: messages, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/messages", h.handleList)
	r.Post("/api/messages", h.handleSend)
	r.Get("/api/messages/{id}", h.handleGet)
	r.Put("/api/messages/{id}", h.handleMarkSeen)
	r.Patch("/api/messages/{id}", h.handleMarkSeen)
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
	filter, err := messageFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, total, err := h.messages.ListMessages(ctx, identity.FromContext(ctx), filter, page)
	if err != nil {
		h.fail(ctx, w, "list messages", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewCollection(items, page, total))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgID, err := id.ParseMessageID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.messages.GetMessage(ctx, identity.FromContext(ctx), msgID)
	if err != nil {
		h.fail(ctx, w, "get message", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SendMessageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	in, err := req.input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.messages.SendMessage(ctx, identity.FromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "send message", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgID, err := id.ParseMessageID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if _, ok := httputil.DecodeAndPrepare[UpdateMessageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
		return
	}
	m, err := h.messages.MarkSeen(ctx, identity.FromContext(ctx), msgID)
	if err != nil {
		h.fail(ctx, w, "mark message seen", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}
