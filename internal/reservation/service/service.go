// Package service implements reservations and reviews. Status changes run
// lock-authorize-transition-persist-audit inside one transaction.
package service

import (
	"context"
	"errors"
	"log/slog"

	"coliving/internal/identity"
	"coliving/internal/platform/metrics"
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

// Store persists reservations and reviews.
type Store interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	FindReservation(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error)
	LockReservation(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error)
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	DeleteReservation(ctx context.Context, reservationID id.ReservationID) error
	ListReservations(ctx context.Context, scope policy.Scope, filter models.Filter, page paging.Page) ([]*models.Reservation, int, error)

	CreateReview(ctx context.Context, review *models.Review) error
	FindReview(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID id.ReviewID) error
	ListReviews(ctx context.Context, filter models.ReviewFilter, page paging.Page) ([]*models.Review, int, error)
}

type Authorizer interface {
	Require(ctx context.Context, actor identity.Actor, op policy.Operation, rt policy.ResourceType, resource any) error
}

// AuditPublisher records reservation events. Emit failing must fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    Store
	listings policy.ListingLookup
	policy   Authorizer
	tx       tx.Runner
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

// New constructs a Service. listings is used to check that a room is open for
// booking.
func New(store Store, listings policy.ListingLookup, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		listings: listings,
		policy:   authz,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewShardedRunner()
	}
	return s
}

func (s *Service) emit(ctx context.Context, actor identity.Actor, action audit.AuditEvent, subject, decision, reason string) error {
	if s.auditor == nil {
		return nil
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor.ID,
		Subject:   subject,
		Action:    string(action),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func loadErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

func writeErr(err error, conflictMsg, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "referenced resource not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}

func validation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return err
}
