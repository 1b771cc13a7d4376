// Package service runs staff verification of listings and identity documents.
package service

import (
	"context"
	"errors"
	"log/slog"

	accountModels "coliving/internal/account/models"
	"coliving/internal/identity"
	"coliving/internal/platform/metrics"
	"coliving/internal/policy"
	"coliving/internal/verification/models"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

type Store interface {
	CreateSpaceVerification(ctx context.Context, v *models.VerificationSpace) error
	FindSpaceVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationSpace, error)
	LockSpaceVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationSpace, error)
	UpdateSpaceVerification(ctx context.Context, v *models.VerificationSpace) error
	ListSpaceVerifications(ctx context.Context, filter models.SpaceFilter, page paging.Page) ([]*models.VerificationSpace, int, error)

	CreateUserVerification(ctx context.Context, v *models.VerificationUser) error
	FindUserVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationUser, error)
	LockUserVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationUser, error)
	UpdateUserVerification(ctx context.Context, v *models.VerificationUser) error
	ListUserVerifications(ctx context.Context, filter models.UserFilter, page paging.Page) ([]*models.VerificationUser, int, error)
}

// UserLookup checks that the subject of an identity verification exists.
type UserLookup interface {
	FindUser(ctx context.Context, userID id.UserID) (*accountModels.User, error)
}

type Authorizer interface {
	Require(ctx context.Context, actor identity.Actor, op policy.Operation, rt policy.ResourceType, resource any) error
}

// AuditPublisher records resolutions. Emit failing must fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    Store
	listings policy.ListingLookup
	users    UserLookup
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

func New(store Store, listings policy.ListingLookup, users UserLookup, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		listings: listings,
		users:    users,
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

// UpdateInput changes the status, the notes, or both. Nil fields are left as is.
type UpdateInput struct {
	Status *models.Status
	Notes  *string
}

// resolve applies in to l and reports whether the status left PENDING.
func resolve(ctx context.Context, l *models.Lifecycle, in UpdateInput) (bool, error) {
	wasResolved := l.Resolved()
	if in.Status != nil {
		if err := l.Resolve(*in.Status, requestcontext.Now(ctx)); err != nil {
			return false, err
		}
	}
	l.SetNotes(in.Notes)
	return !wasResolved && l.Resolved(), nil
}

func (s *Service) emit(ctx context.Context, actor identity.Actor, subject string, status models.Status) error {
	if s.auditor == nil {
		return nil
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor.ID,
		Subject:   subject,
		Action:    string(audit.EventVerificationResolved),
		Decision:  string(status),
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

// referenceErr reports a missing referenced entity as a validation error.
func referenceErr(err error, field, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeValidation, field+" does not reference a known "+what)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

func writeErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "verification already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeValidation, "referenced resource not found")
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
