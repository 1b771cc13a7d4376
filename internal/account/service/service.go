// Package service manages accounts: registration, credential checks, token
// revocation and administrative edits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coliving/internal/account/models"
	"coliving/internal/account/secrets"
	"coliving/internal/identity"
	jwttoken "coliving/internal/jwt_token"
	"coliving/internal/platform/metrics"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

const defaultTokenTTL = time.Hour

// Store persists user accounts.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, userID id.UserID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	LockUser(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, userID id.UserID) error
	ListUsers(ctx context.Context, filter models.Filter, page paging.Page) ([]*models.User, int, error)
}

type Authorizer interface {
	Require(ctx context.Context, actor identity.Actor, op policy.Operation, rt policy.ResourceType, resource any) error
}

// AuditPublisher records account lifecycle events. Emit failing must fail the
// operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SecurityRecorder records authentication failures best-effort.
type SecurityRecorder interface {
	Emit(ctx context.Context, event audit.Event)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, roles []string, expiresIn time.Duration) (string, *jwttoken.Claims, error)
}

// TokenRevoker adds a token id to the revocation list until it would expire.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Lockout throttles repeated failed logins per email and client address.
type Lockout interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Clear(ctx context.Context, email, ip string) error
}

// UserReferences reports whether records outside the account store still point
// at a user.
type UserReferences interface {
	ReferencesUser(ctx context.Context, userID id.UserID) (bool, error)
}

type Service struct {
	store    Store
	policy   Authorizer
	tokens   TokenIssuer
	revoker  TokenRevoker
	hasher   secrets.Hasher
	tokenTTL time.Duration
	tx       tx.Runner
	auditor  AuditPublisher
	security SecurityRecorder
	lockout  Lockout
	refs     []UserReferences
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

func WithSecurityRecorder(r SecurityRecorder) Option {
	return func(s *Service) {
		s.security = r
	}
}

func WithLockout(l Lockout) Option {
	return func(s *Service) {
		s.lockout = l
	}
}

// WithUserReferences registers the stores consulted before a user is deleted.
func WithUserReferences(refs ...UserReferences) Option {
	return func(s *Service) {
		s.refs = append(s.refs, refs...)
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithHasher(h secrets.Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

func New(store Store, authz Authorizer, tokens TokenIssuer, revoker TokenRevoker, opts ...Option) *Service {
	s := &Service{
		store:    store,
		policy:   authz,
		tokens:   tokens,
		revoker:  revoker,
		tokenTTL: defaultTokenTTL,
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

func (s *Service) event(ctx context.Context, actorID id.UserID, action audit.AuditEvent, subject, decision, reason string) audit.Event {
	return audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actorID,
		Subject:   subject,
		Action:    string(action),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		IP:        requestcontext.ClientIP(ctx),
	}
}

func (s *Service) emit(ctx context.Context, actorID id.UserID, action audit.AuditEvent, subject, decision, reason string) error {
	if s.auditor == nil {
		return nil
	}
	if err := s.auditor.Emit(ctx, s.event(ctx, actorID, action, subject, decision, reason)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) recordSecurity(ctx context.Context, actorID id.UserID, action audit.AuditEvent, subject, reason string) {
	if s.security == nil {
		return
	}
	s.security.Emit(ctx, s.event(ctx, actorID, action, subject, "deny", reason))
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
		return dErrors.New(dErrors.CodeNotFound, "user not found")
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
