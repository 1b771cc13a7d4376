package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"coliving/internal/identity"
	"coliving/internal/platform/tracing"
	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

// CreateInput is what a client supplies when booking a room.
type CreateInput struct {
	PrivateSpaceID id.PrivateSpaceID
	StartDate      time.Time
	EndDate        time.Time
	IsForTwo       bool
	LodgingTax     float64
	TotalPrice     float64
}

// ListReservations returns the reservations visible to actor. Staff see all,
// owners see bookings on their spaces, clients see their own.
func (s *Service) ListReservations(ctx context.Context, actor identity.Actor, filter models.Filter, page paging.Page) ([]*models.Reservation, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceReservation, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListReservations(ctx, policy.ReservationScope(actor), filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reservations")
	}
	return items, total, nil
}

func (s *Service) GetReservation(ctx context.Context, actor identity.Actor, reservationID id.ReservationID) (*models.Reservation, error) {
	r, err := s.store.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, loadErr(err, "reservation")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceReservation, r); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateReservation books a published room for actor. The reservation starts
// PENDING.
func (s *Service) CreateReservation(ctx context.Context, actor identity.Actor, in CreateInput) (*models.Reservation, error) {
	ctx, span := tracing.Start(ctx, "reservation.create")
	defer span.End()

	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceReservation, nil); err != nil {
		return nil, err
	}
	if in.PrivateSpaceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "privateSpaceId is required")
	}
	span.SetAttributes(attribute.String("private_space.id", in.PrivateSpaceID.String()))

	var created *models.Reservation
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "private_space:"+in.PrivateSpaceID.String()), func(ctx context.Context) error {
		if err := s.checkBookable(ctx, in.PrivateSpaceID); err != nil {
			return err
		}
		r, err := models.NewReservation(id.ReservationID(uuid.New()), in.PrivateSpaceID, actor.ID,
			in.StartDate, in.EndDate, in.IsForTwo, in.LodgingTax, in.TotalPrice, requestcontext.Now(ctx))
		if err != nil {
			return validation(err)
		}
		if err := s.store.CreateReservation(ctx, r); err != nil {
			return writeErr(err, "reservation already exists", "create reservation")
		}
		if err := s.emit(ctx, actor, audit.EventReservationCreated, policy.SubjectOf(policy.ResourceReservation, r), string(r.Status), ""); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncReservationChange(string(created.Status))
	s.logger.InfoContext(ctx, "reservation created",
		"request_id", requestcontext.RequestID(ctx),
		"reservation_id", created.ID.String(),
		"private_space_id", created.PrivateSpaceID.String(),
		"client_id", actor.ID.String(),
	)
	return created, nil
}

// checkBookable requires the room and its parent space to be published.
func (s *Service) checkBookable(ctx context.Context, roomID id.PrivateSpaceID) error {
	room, err := s.listings.FindPrivateSpace(ctx, roomID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, "privateSpaceId does not reference a known private space")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load private space")
	}
	if !room.IsActive {
		return dErrors.New(dErrors.CodeValidation, "private space is not published")
	}
	parent, err := s.listings.FindColivingSpace(ctx, room.ColivingSpaceID)
	if err != nil {
		return loadErr(err, "coliving space")
	}
	if !parent.IsActive {
		return dErrors.New(dErrors.CodeValidation, "coliving space is not published")
	}
	return nil
}

// UpdateReservationStatus moves a reservation along its lifecycle. Only the
// controlling owner or staff may do it.
func (s *Service) UpdateReservationStatus(ctx context.Context, actor identity.Actor, reservationID id.ReservationID, next models.Status) (*models.Reservation, error) {
	ctx, span := tracing.Start(ctx, "reservation.updateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("reservation.id", reservationID.String()),
		attribute.String("reservation.status", string(next)),
	)

	var (
		updated  *models.Reservation
		previous models.Status
	)
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "reservation:"+reservationID.String()), func(ctx context.Context) error {
		r, err := s.store.LockReservation(ctx, reservationID)
		if err != nil {
			return loadErr(err, "reservation")
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceReservation, r); err != nil {
			return err
		}
		previous = r.Status
		if err := r.TransitionTo(next, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.UpdateReservation(ctx, r); err != nil {
			return writeErr(err, "reservation changed concurrently", "update reservation")
		}
		if err := s.emit(ctx, actor, audit.EventReservationStatusChanged, policy.SubjectOf(policy.ResourceReservation, r),
			string(next), string(previous)+" -> "+string(next)); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncReservationChange(string(next))
	s.logger.InfoContext(ctx, "reservation status changed",
		"request_id", requestcontext.RequestID(ctx),
		"reservation_id", reservationID.String(),
		"from", string(previous),
		"to", string(next),
		"actor_id", actor.ID.String(),
	)
	return updated, nil
}

// DeleteReservation removes a reservation and its review. Staff only.
func (s *Service) DeleteReservation(ctx context.Context, actor identity.Actor, reservationID id.ReservationID) error {
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "reservation:"+reservationID.String()), func(ctx context.Context) error {
		r, err := s.store.LockReservation(ctx, reservationID)
		if err != nil {
			return loadErr(err, "reservation")
		}
		if err := s.policy.Require(ctx, actor, policy.OpDelete, policy.ResourceReservation, r); err != nil {
			return err
		}
		if err := s.store.DeleteReservation(ctx, reservationID); err != nil {
			return writeErr(err, "reservation is still referenced", "delete reservation")
		}
		return s.emit(ctx, actor, audit.EventReservationDeleted, policy.SubjectOf(policy.ResourceReservation, r), "deleted", "")
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "reservation deleted",
		"request_id", requestcontext.RequestID(ctx),
		"reservation_id", reservationID.String(),
		"actor_id", actor.ID.String(),
	)
	return nil
}
