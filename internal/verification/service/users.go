package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"coliving/internal/identity"
	"coliving/internal/platform/tracing"
	"coliving/internal/policy"
	"coliving/internal/verification/models"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

// UserInput opens an identity verification for a user's document.
type UserInput struct {
	UserID       id.UserID
	DocumentType string
	DocumentURL  string
	Notes        *string
}

func (s *Service) ListUserVerifications(ctx context.Context, actor identity.Actor, filter models.UserFilter, page paging.Page) ([]*models.VerificationUser, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceVerificationUser, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListUserVerifications(ctx, filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list user verifications")
	}
	return items, total, nil
}

func (s *Service) GetUserVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID) (*models.VerificationUser, error) {
	v, err := s.store.FindUserVerification(ctx, vID)
	if err != nil {
		return nil, loadErr(err, "user verification")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceVerificationUser, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) CreateUserVerification(ctx context.Context, actor identity.Actor, in UserInput) (*models.VerificationUser, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceVerificationUser, nil); err != nil {
		return nil, err
	}
	if in.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	if _, err := s.users.FindUser(ctx, in.UserID); err != nil {
		return nil, referenceErr(err, "userId", "user")
	}
	verifier := actor.ID
	v, err := models.NewVerificationUser(id.VerificationID(uuid.New()), in.UserID, &verifier,
		in.DocumentType, strings.TrimSpace(in.DocumentURL), requestcontext.Now(ctx))
	if err != nil {
		return nil, validation(err)
	}
	v.SetNotes(in.Notes)
	if err := s.store.CreateUserVerification(ctx, v); err != nil {
		return nil, writeErr(err, "create user verification")
	}
	s.logger.InfoContext(ctx, "user verification opened",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", v.ID.String(),
		"user_id", in.UserID.String(),
	)
	return v, nil
}

// UpdateUserVerification resolves a document check. The resolving staff member
// becomes the verifier.
func (s *Service) UpdateUserVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID, in UpdateInput) (*models.VerificationUser, error) {
	ctx, span := tracing.Start(ctx, "verification.updateUser")
	defer span.End()
	span.SetAttributes(attribute.String("verification.id", vID.String()))

	var (
		updated  *models.VerificationUser
		resolved bool
	)
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "verification_user:"+vID.String()), func(ctx context.Context) error {
		v, err := s.store.LockUserVerification(ctx, vID)
		if err != nil {
			return loadErr(err, "user verification")
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceVerificationUser, v); err != nil {
			return err
		}
		resolved, err = resolve(ctx, &v.Lifecycle, in)
		if err != nil {
			return err
		}
		if resolved {
			verifier := actor.ID
			v.VerifierID = &verifier
		}
		if err := s.store.UpdateUserVerification(ctx, v); err != nil {
			return writeErr(err, "update user verification")
		}
		if resolved {
			if err := s.emit(ctx, actor, policy.SubjectOf(policy.ResourceVerificationUser, v), v.Status); err != nil {
				return err
			}
		}
		updated = v
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	if resolved {
		s.metrics.IncVerificationResolved("user", string(updated.Status))
		s.logger.InfoContext(ctx, "user verification resolved",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", vID.String(),
			"status", string(updated.Status),
			"actor_id", actor.ID.String(),
		)
	}
	return updated, nil
}
