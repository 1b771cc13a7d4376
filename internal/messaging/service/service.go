// Package service sends direct messages between users and tracks read receipts.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	accountModels "coliving/internal/account/models"
	"coliving/internal/identity"
	"coliving/internal/messaging/models"
	"coliving/internal/platform/tracing"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

type Store interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	FindMessage(ctx context.Context, msgID id.MessageID) (*models.Message, error)
	LockMessage(ctx context.Context, msgID id.MessageID) (*models.Message, error)
	UpdateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, scope policy.Scope, filter models.Filter, page paging.Page) ([]*models.Message, int, error)
}

// UserLookup resolves the receiver of a new message.
type UserLookup interface {
	FindUser(ctx context.Context, userID id.UserID) (*accountModels.User, error)
}

type Authorizer interface {
	Require(ctx context.Context, actor identity.Actor, op policy.Operation, rt policy.ResourceType, resource any) error
}

type Service struct {
	store  Store
	users  UserLookup
	policy Authorizer
	tx     tx.Runner
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(store Store, users UserLookup, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		users:  users,
		policy: authz,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewShardedRunner()
	}
	return s
}

// SendInput is what the sender supplies. The sender is always the actor.
type SendInput struct {
	ReceiverID id.UserID
	Content    string
}

// ListMessages returns the conversations visible to actor, newest first.
func (s *Service) ListMessages(ctx context.Context, actor identity.Actor, filter models.Filter, page paging.Page) ([]*models.Message, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceMessage, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListMessages(ctx, policy.MessageScope(actor), filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return items, total, nil
}

func (s *Service) GetMessage(ctx context.Context, actor identity.Actor, msgID id.MessageID) (*models.Message, error) {
	m, err := s.store.FindMessage(ctx, msgID)
	if err != nil {
		return nil, loadErr(err)
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceMessage, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SendMessage stores a message from actor to an existing, active user.
func (s *Service) SendMessage(ctx context.Context, actor identity.Actor, in SendInput) (*models.Message, error) {
	ctx, span := tracing.Start(ctx, "message.send")
	defer span.End()

	m, err := s.send(ctx, actor, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("message.id", m.ID.String()))
	s.logger.InfoContext(ctx, "message sent",
		"request_id", requestcontext.RequestID(ctx),
		"message_id", m.ID.String(),
		"sender_id", m.SenderID.String(),
		"receiver_id", m.ReceiverID.String(),
	)
	return m, nil
}

func (s *Service) send(ctx context.Context, actor identity.Actor, in SendInput) (*models.Message, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceMessage, nil); err != nil {
		return nil, err
	}
	if in.ReceiverID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "receiverId is required")
	}
	receiver, err := s.users.FindUser(ctx, in.ReceiverID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "receiverId does not reference a known user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receiver")
	}
	if !receiver.IsActive {
		return nil, dErrors.New(dErrors.CodeValidation, "receiver account is disabled")
	}
	m, err := models.NewMessage(id.MessageID(uuid.New()), actor.ID, receiver.ID, in.Content, requestcontext.Now(ctx))
	if err != nil {
		return nil, validation(err)
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeValidation, "sender or receiver no longer exists")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "message already exists")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send message")
		}
	}
	return m, nil
}

// MarkSeen records that the receiver read the message. Marking twice keeps the
// first timestamp.
func (s *Service) MarkSeen(ctx context.Context, actor identity.Actor, msgID id.MessageID) (*models.Message, error) {
	var updated *models.Message
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "message:"+msgID.String()), func(ctx context.Context) error {
		m, err := s.store.LockMessage(ctx, msgID)
		if err != nil {
			return loadErr(err)
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceMessage, m); err != nil {
			return err
		}
		if m.SeenAt != nil {
			updated = m
			return nil
		}
		m.MarkSeen(requestcontext.Now(ctx))
		if err := s.store.UpdateMessage(ctx, m); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return loadErr(err)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update message")
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func loadErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "message not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load message")
}

func validation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return err
}
