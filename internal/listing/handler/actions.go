package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coliving/internal/identity"
	"coliving/internal/listing/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/requestcontext"
)

// ActionService is the publish/suspend surface of the listing service.
type ActionService interface {
	PublishColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID) (*service.TransitionResult, error)
	SuspendColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID, reason string) (*service.TransitionResult, error)
	PublishPrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID) (*service.TransitionResult, error)
	SuspendPrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID, reason string) (*service.TransitionResult, error)
}

// ActionHandler serves the moderation endpoints that flip a listing's isActive.
type ActionHandler struct {
	actions ActionService
	logger  *slog.Logger
}

func NewActions(actions ActionService, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{actions: actions, logger: logger}
}

// Register mounts publish and suspend for both listing types. POST and PATCH are
// accepted interchangeably.
func (h *ActionHandler) Register(r chi.Router) {
	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		r.Method(method, "/api/coliving_spaces/{id}/publish", http.HandlerFunc(h.handlePublishColivingSpace))
		r.Method(method, "/api/coliving_spaces/{id}/suspend", http.HandlerFunc(h.handleSuspendColivingSpace))
		r.Method(method, "/api/private_spaces/{id}/publish", http.HandlerFunc(h.handlePublishPrivateSpace))
		r.Method(method, "/api/private_spaces/{id}/suspend", http.HandlerFunc(h.handleSuspendPrivateSpace))
	}
}

func (h *ActionHandler) handlePublishColivingSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spaceID, err := id.ParseColivingSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.actions.PublishColivingSpace(ctx, identity.FromContext(ctx), spaceID)
	h.respond(ctx, w, "publish coliving space", res, err)
}

func (h *ActionHandler) handleSuspendColivingSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spaceID, err := id.ParseColivingSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reason := h.suspendReason(ctx, w, r)
	res, err := h.actions.SuspendColivingSpace(ctx, identity.FromContext(ctx), spaceID, reason)
	h.respond(ctx, w, "suspend coliving space", res, err)
}

func (h *ActionHandler) handlePublishPrivateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID, err := id.ParsePrivateSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.actions.PublishPrivateSpace(ctx, identity.FromContext(ctx), roomID)
	h.respond(ctx, w, "publish private space", res, err)
}

func (h *ActionHandler) handleSuspendPrivateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID, err := id.ParsePrivateSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reason := h.suspendReason(ctx, w, r)
	res, err := h.actions.SuspendPrivateSpace(ctx, identity.FromContext(ctx), roomID, reason)
	h.respond(ctx, w, "suspend private space", res, err)
}

// suspendReason reads the optional {"reason": ...} body. Anything else in the
// body is ignored; an unreadable body means no reason.
func (h *ActionHandler) suspendReason(ctx context.Context, w http.ResponseWriter, r *http.Request) string {
	req, err := httputil.DecodeLenient[SuspendRequest](w, r)
	if err != nil {
		h.logger.DebugContext(ctx, "ignoring unreadable suspend body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return req.Reason
}

func (h *ActionHandler) respond(ctx context.Context, w http.ResponseWriter, action string, res *service.TransitionResult, err error) {
	if err != nil {
		logError(ctx, h.logger, action, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// logError logs internal failures at ERROR and client mistakes at WARN.
func logError(ctx context.Context, logger *slog.Logger, action string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		logger.ErrorContext(ctx, "failed to "+action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	logger.WarnContext(ctx, action+" rejected",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
