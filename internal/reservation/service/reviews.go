package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"coliving/internal/identity"
	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/requestcontext"
)

// ReviewInput is a client's rating of a stay.
type ReviewInput struct {
	ReservationID id.ReservationID
	Rating        int
	Comment       string
}

func (s *Service) ListReviews(ctx context.Context, actor identity.Actor, filter models.ReviewFilter, page paging.Page) ([]*models.Review, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceReview, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListReviews(ctx, filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	return items, total, nil
}

func (s *Service) GetReview(ctx context.Context, actor identity.Actor, reviewID id.ReviewID) (*models.Review, error) {
	rv, err := s.store.FindReview(ctx, reviewID)
	if err != nil {
		return nil, loadErr(err, "review")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceReview, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// CreateReview rates a reservation. Only the client who made the reservation
// may review it, and only once.
func (s *Service) CreateReview(ctx context.Context, actor identity.Actor, in ReviewInput) (*models.Review, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceReview, nil); err != nil {
		return nil, err
	}
	if in.ReservationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "reservationId is required")
	}
	r, err := s.store.FindReservation(ctx, in.ReservationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "reservationId does not reference a known reservation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reservation")
	}
	if !actor.Is(r.ClientID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the client of the reservation can review it")
	}
	rv, err := models.NewReview(id.ReviewID(uuid.New()), r.ID, actor.ID, in.Rating, in.Comment, requestcontext.Now(ctx))
	if err != nil {
		return nil, validation(err)
	}
	if err := s.store.CreateReview(ctx, rv); err != nil {
		return nil, writeErr(err, "reservation already has a review", "create review")
	}
	s.logger.InfoContext(ctx, "review created",
		"request_id", requestcontext.RequestID(ctx),
		"review_id", rv.ID.String(),
		"reservation_id", r.ID.String(),
	)
	return rv, nil
}

// DeleteReview is a moderation action. Staff only.
func (s *Service) DeleteReview(ctx context.Context, actor identity.Actor, reviewID id.ReviewID) error {
	rv, err := s.store.FindReview(ctx, reviewID)
	if err != nil {
		return loadErr(err, "review")
	}
	if err := s.policy.Require(ctx, actor, policy.OpDelete, policy.ResourceReview, rv); err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return writeErr(err, "review is still referenced", "delete review")
	}
	return nil
}
