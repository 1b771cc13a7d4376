package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"coliving/internal/identity"
	"coliving/internal/listing/models"
	"coliving/internal/platform/tracing"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

// DefaultSuspendReason is echoed when a suspend request carries no reason.
const DefaultSuspendReason = "unspecified"

// TransitionResult is what the publish/suspend endpoints return.
type TransitionResult struct {
	Message  string `json:"message"`
	Reason   string `json:"reason,omitempty"`
	ID       string `json:"id"`
	IsActive bool   `json:"isActive"`
}

// lifecycle is the publish/suspend surface shared by both listing types.
type lifecycle interface {
	Publish(now time.Time) error
	Suspend(now time.Time) error
}

type transition struct {
	op       policy.Operation
	resource policy.ResourceType
	label    string
	reason   string
}

func (t transition) apply(l lifecycle, now time.Time) error {
	if t.op == policy.OpPublish {
		return l.Publish(now)
	}
	return l.Suspend(now)
}

func (t transition) action() audit.AuditEvent {
	if t.op == policy.OpPublish {
		return audit.EventListingPublished
	}
	return audit.EventListingSuspended
}

func (t transition) result(listingID string, active bool) *TransitionResult {
	res := &TransitionResult{ID: listingID, IsActive: active}
	if t.op == policy.OpPublish {
		res.Message = t.label + " published successfully."
		return res
	}
	res.Message = t.label + " suspended successfully."
	res.Reason = t.reason
	return res
}

func suspendReason(reason string) string {
	if reason == "" {
		return DefaultSuspendReason
	}
	return reason
}

// PublishColivingSpace makes a draft space visible. Staff only.
func (s *Service) PublishColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID) (*TransitionResult, error) {
	return s.transitionSpace(ctx, actor, spaceID, transition{
		op: policy.OpPublish, resource: policy.ResourceColivingSpace, label: "Coliving space",
	})
}

// SuspendColivingSpace takes a published space offline. The reason is echoed, not stored.
func (s *Service) SuspendColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID, reason string) (*TransitionResult, error) {
	return s.transitionSpace(ctx, actor, spaceID, transition{
		op: policy.OpSuspend, resource: policy.ResourceColivingSpace, label: "Coliving space", reason: suspendReason(reason),
	})
}

// PublishPrivateSpace makes a draft room visible. The parent space must already be
// published.
func (s *Service) PublishPrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID) (*TransitionResult, error) {
	return s.transitionRoom(ctx, actor, roomID, transition{
		op: policy.OpPublish, resource: policy.ResourcePrivateSpace, label: "Private space",
	})
}

func (s *Service) SuspendPrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID, reason string) (*TransitionResult, error) {
	return s.transitionRoom(ctx, actor, roomID, transition{
		op: policy.OpSuspend, resource: policy.ResourcePrivateSpace, label: "Private space", reason: suspendReason(reason),
	})
}

func (s *Service) transitionSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID, t transition) (*TransitionResult, error) {
	ctx, span := tracing.Start(ctx, "listing."+string(t.op)+"ColivingSpace")
	defer span.End()
	span.SetAttributes(attribute.String("coliving_space.id", spaceID.String()))

	var result *TransitionResult
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "coliving_space:"+spaceID.String()), func(ctx context.Context) error {
		space, err := s.spaces.LockColivingSpace(ctx, spaceID)
		if err != nil {
			return loadErr(err, "coliving space")
		}
		if err := s.policy.Require(ctx, actor, t.op, t.resource, space); err != nil {
			return err
		}
		if err := t.apply(space, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.spaces.UpdateColivingSpace(ctx, space); err != nil {
			return writeErr(err, "coliving space changed concurrently", "update coliving space")
		}
		if err := s.emitTransition(ctx, actor, t, policy.SubjectOf(t.resource, space)); err != nil {
			return err
		}
		result = t.result(space.ID.String(), space.IsActive)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncListingTransition("coliving_space", string(t.op))
	s.logger.InfoContext(ctx, "listing transitioned",
		"request_id", requestcontext.RequestID(ctx),
		"coliving_space_id", spaceID.String(),
		"operation", string(t.op),
		"actor_id", actor.ID.String(),
	)
	return result, nil
}

func (s *Service) transitionRoom(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID, t transition) (*TransitionResult, error) {
	ctx, span := tracing.Start(ctx, "listing."+string(t.op)+"PrivateSpace")
	defer span.End()
	span.SetAttributes(attribute.String("private_space.id", roomID.String()))

	var result *TransitionResult
	err := s.inRoomTx(ctx, roomID, t.op == policy.OpPublish, func(ctx context.Context) error {
		room, err := s.spaces.LockPrivateSpace(ctx, roomID)
		if err != nil {
			return loadErr(err, "private space")
		}
		if err := s.policy.Require(ctx, actor, t.op, t.resource, room); err != nil {
			return err
		}
		if err := t.apply(room, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.spaces.UpdatePrivateSpace(ctx, room); err != nil {
			return writeErr(err, "private space changed concurrently", "update private space")
		}
		if err := s.emitTransition(ctx, actor, t, policy.SubjectOf(t.resource, room)); err != nil {
			return err
		}
		result = t.result(room.ID.String(), room.IsActive)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncListingTransition("private_space", string(t.op))
	s.logger.InfoContext(ctx, "listing transitioned",
		"request_id", requestcontext.RequestID(ctx),
		"private_space_id", roomID.String(),
		"operation", string(t.op),
		"actor_id", actor.ID.String(),
	)
	return result, nil
}

// inRoomTx runs fn with the room locked. With withParent the parent coliving
// space is locked first and held until commit, so a room publish and a parent
// suspend cannot interleave.
func (s *Service) inRoomTx(ctx context.Context, roomID id.PrivateSpaceID, withParent bool, fn func(ctx context.Context) error) error {
	keys := []string{"private_space:" + roomID.String()}
	var parentID id.ColivingSpaceID
	if withParent {
		room, err := s.spaces.FindPrivateSpace(ctx, roomID)
		if err != nil {
			return loadErr(err, "private space")
		}
		parentID = room.ColivingSpaceID
		keys = append(keys, "coliving_space:"+parentID.String())
	}
	return s.tx.RunInTx(tx.WithLockKey(ctx, keys...), func(ctx context.Context) error {
		if withParent {
			// A missing parent is left to the policy, which reports the broken chain.
			if _, err := s.spaces.LockColivingSpace(ctx, parentID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return loadErr(err, "coliving space")
			}
		}
		return fn(ctx)
	})
}

func (s *Service) emitTransition(ctx context.Context, actor identity.Actor, t transition, subject string) error {
	if s.auditor == nil {
		return nil
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor.ID,
		Subject:   subject,
		Action:    string(t.action()),
		Decision:  string(t.op),
		Reason:    t.reason,
		RequestID: requestcontext.RequestID(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

var (
	_ lifecycle = (*models.ColivingSpace)(nil)
	_ lifecycle = (*models.PrivateSpace)(nil)
)
