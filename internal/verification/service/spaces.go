package service

import (
	"context"

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

// SpaceInput opens a listing verification. PrivateSpaceID narrows it to one
// room of the space.
type SpaceInput struct {
	ColivingSpaceID id.ColivingSpaceID
	PrivateSpaceID  *id.PrivateSpaceID
	Notes           *string
}

func (s *Service) ListSpaceVerifications(ctx context.Context, actor identity.Actor, filter models.SpaceFilter, page paging.Page) ([]*models.VerificationSpace, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceVerificationSpace, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListSpaceVerifications(ctx, filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list space verifications")
	}
	return items, total, nil
}

func (s *Service) GetSpaceVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID) (*models.VerificationSpace, error) {
	v, err := s.store.FindSpaceVerification(ctx, vID)
	if err != nil {
		return nil, loadErr(err, "space verification")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceVerificationSpace, v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateSpaceVerification opens a PENDING verification with actor as verifier.
func (s *Service) CreateSpaceVerification(ctx context.Context, actor identity.Actor, in SpaceInput) (*models.VerificationSpace, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceVerificationSpace, nil); err != nil {
		return nil, err
	}
	if in.ColivingSpaceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "colivingSpaceId is required")
	}
	if _, err := s.listings.FindColivingSpace(ctx, in.ColivingSpaceID); err != nil {
		return nil, referenceErr(err, "colivingSpaceId", "coliving space")
	}
	if in.PrivateSpaceID != nil {
		room, err := s.listings.FindPrivateSpace(ctx, *in.PrivateSpaceID)
		if err != nil {
			return nil, referenceErr(err, "privateSpaceId", "private space")
		}
		if room.ColivingSpaceID != in.ColivingSpaceID {
			return nil, dErrors.New(dErrors.CodeValidation, "private space does not belong to the coliving space")
		}
	}

	v, err := models.NewVerificationSpace(id.VerificationID(uuid.New()), in.ColivingSpaceID, in.PrivateSpaceID, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, validation(err)
	}
	v.SetNotes(in.Notes)
	if err := s.store.CreateSpaceVerification(ctx, v); err != nil {
		return nil, writeErr(err, "create space verification")
	}
	s.logger.InfoContext(ctx, "space verification opened",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", v.ID.String(),
		"coliving_space_id", v.ColivingSpaceID.String(),
		"verifier_id", actor.ID.String(),
	)
	return v, nil
}

// UpdateSpaceVerification resolves a verification or edits its notes. Leaving
// PENDING is audited.
func (s *Service) UpdateSpaceVerification(ctx context.Context, actor identity.Actor, vID id.VerificationID, in UpdateInput) (*models.VerificationSpace, error) {
	ctx, span := tracing.Start(ctx, "verification.updateSpace")
	defer span.End()
	span.SetAttributes(attribute.String("verification.id", vID.String()))

	var (
		updated  *models.VerificationSpace
		resolved bool
	)
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "verification_space:"+vID.String()), func(ctx context.Context) error {
		v, err := s.store.LockSpaceVerification(ctx, vID)
		if err != nil {
			return loadErr(err, "space verification")
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceVerificationSpace, v); err != nil {
			return err
		}
		resolved, err = resolve(ctx, &v.Lifecycle, in)
		if err != nil {
			return err
		}
		if err := s.store.UpdateSpaceVerification(ctx, v); err != nil {
			return writeErr(err, "update space verification")
		}
		if resolved {
			if err := s.emit(ctx, actor, policy.SubjectOf(policy.ResourceVerificationSpace, v), v.Status); err != nil {
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
		s.metrics.IncVerificationResolved("space", string(updated.Status))
		s.logger.InfoContext(ctx, "space verification resolved",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", vID.String(),
			"status", string(updated.Status),
			"actor_id", actor.ID.String(),
		)
	}
	return updated, nil
}
