package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"coliving/internal/identity"
	"coliving/internal/listing/models"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

func (s *Service) ListColivingSpaces(ctx context.Context, actor identity.Actor, filter models.SpaceFilter, page paging.Page) ([]*models.ColivingSpace, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceColivingSpace, nil); err != nil {
		return nil, 0, err
	}
	spaces, total, err := s.spaces.ListColivingSpaces(ctx, filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list coliving spaces")
	}
	return spaces, total, nil
}

func (s *Service) GetColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error) {
	space, err := s.spaces.FindColivingSpace(ctx, spaceID)
	if err != nil {
		return nil, loadErr(err, "coliving space")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceColivingSpace, space); err != nil {
		return nil, err
	}
	return space, nil
}

// CreateColivingSpace stores a new unpublished space owned by actor.
func (s *Service) CreateColivingSpace(ctx context.Context, actor identity.Actor, details models.SpaceDetails) (*models.ColivingSpace, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceColivingSpace, nil); err != nil {
		return nil, err
	}
	details.Normalize()
	if err := s.checkReferences(ctx, details.CityID, details.AmenityIDs); err != nil {
		return nil, err
	}
	space, err := models.NewColivingSpace(id.ColivingSpaceID(uuid.New()), actor.ID, details, requestcontext.Now(ctx))
	if err != nil {
		return nil, validation(err)
	}
	if err := s.spaces.CreateColivingSpace(ctx, space); err != nil {
		return nil, writeErr(err, "coliving space already exists", "create coliving space")
	}
	s.logger.InfoContext(ctx, "coliving space created",
		"request_id", requestcontext.RequestID(ctx),
		"coliving_space_id", space.ID.String(),
		"owner_id", actor.ID.String(),
	)
	return space, nil
}

// UpdateColivingSpace replaces the descriptive fields of a draft space.
func (s *Service) UpdateColivingSpace(ctx context.Context, actor identity.Actor, spaceID id.ColivingSpaceID, details models.SpaceDetails) (*models.ColivingSpace, error) {
	details.Normalize()
	var updated *models.ColivingSpace
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "coliving_space:"+spaceID.String()), func(ctx context.Context) error {
		space, err := s.spaces.LockColivingSpace(ctx, spaceID)
		if err != nil {
			return loadErr(err, "coliving space")
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceColivingSpace, space); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, details.CityID, details.AmenityIDs); err != nil {
			return err
		}
		if err := space.ApplyDetails(details, requestcontext.Now(ctx)); err != nil {
			return validation(err)
		}
		if err := s.spaces.UpdateColivingSpace(ctx, space); err != nil {
			return writeErr(err, "coliving space changed concurrently", "update coliving space")
		}
		updated = space
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListColivingSpacesByAmenity is the inverse amenity lookup.
func (s *Service) ListColivingSpacesByAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID) ([]*models.ColivingSpace, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceColivingSpace, nil); err != nil {
		return nil, err
	}
	if _, err := s.catalog.FindAmenity(ctx, amenityID); err != nil {
		return nil, loadErr(err, "amenity")
	}
	spaces, err := s.spaces.ListColivingSpacesByAmenity(ctx, amenityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list coliving spaces")
	}
	return spaces, nil
}

func (s *Service) ListPrivateSpaces(ctx context.Context, actor identity.Actor, filter models.RoomFilter, page paging.Page) ([]*models.PrivateSpace, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourcePrivateSpace, nil); err != nil {
		return nil, 0, err
	}
	rooms, total, err := s.spaces.ListPrivateSpaces(ctx, filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list private spaces")
	}
	return rooms, total, nil
}

func (s *Service) GetPrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID) (*models.PrivateSpace, error) {
	room, err := s.spaces.FindPrivateSpace(ctx, roomID)
	if err != nil {
		return nil, loadErr(err, "private space")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourcePrivateSpace, room); err != nil {
		return nil, err
	}
	return room, nil
}

// CreatePrivateSpace adds an unpublished room to a space the actor controls.
func (s *Service) CreatePrivateSpace(ctx context.Context, actor identity.Actor, parentID id.ColivingSpaceID, details models.RoomDetails) (*models.PrivateSpace, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourcePrivateSpace, nil); err != nil {
		return nil, err
	}
	details.Normalize()

	var created *models.PrivateSpace
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "coliving_space:"+parentID.String()), func(ctx context.Context) error {
		parent, err := s.spaces.FindColivingSpace(ctx, parentID)
		if err != nil {
			return loadErr(err, "coliving space")
		}
		if !actor.Is(parent.OwnerID) {
			return dErrors.New(dErrors.CodeForbidden, "only the owner of this space may add private spaces")
		}
		if err := s.checkReferences(ctx, nil, details.AmenityIDs); err != nil {
			return err
		}
		room, err := models.NewPrivateSpace(id.PrivateSpaceID(uuid.New()), parent.ID, details, requestcontext.Now(ctx))
		if err != nil {
			return validation(err)
		}
		if err := s.spaces.CreatePrivateSpace(ctx, room); err != nil {
			return writeErr(err, "private space already exists", "create private space")
		}
		created = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) UpdatePrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID, details models.RoomDetails) (*models.PrivateSpace, error) {
	details.Normalize()
	var updated *models.PrivateSpace
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "private_space:"+roomID.String()), func(ctx context.Context) error {
		room, err := s.spaces.LockPrivateSpace(ctx, roomID)
		if err != nil {
			return loadErr(err, "private space")
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourcePrivateSpace, room); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, nil, details.AmenityIDs); err != nil {
			return err
		}
		if err := room.ApplyDetails(details, requestcontext.Now(ctx)); err != nil {
			return validation(err)
		}
		if err := s.spaces.UpdatePrivateSpace(ctx, room); err != nil {
			return writeErr(err, "private space changed concurrently", "update private space")
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePrivateSpace removes a room. Admin only; rooms with reservations stay.
func (s *Service) DeletePrivateSpace(ctx context.Context, actor identity.Actor, roomID id.PrivateSpaceID) error {
	return s.tx.RunInTx(tx.WithLockKey(ctx, "private_space:"+roomID.String()), func(ctx context.Context) error {
		room, err := s.spaces.LockPrivateSpace(ctx, roomID)
		if err != nil {
			return loadErr(err, "private space")
		}
		if err := s.policy.Require(ctx, actor, policy.OpDelete, policy.ResourcePrivateSpace, room); err != nil {
			return err
		}
		if s.reservations != nil {
			n, err := s.reservations.CountByPrivateSpace(ctx, roomID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count reservations")
			}
			if n > 0 {
				return dErrors.New(dErrors.CodeConflict, "private space has reservations")
			}
		}
		if err := s.spaces.DeletePrivateSpace(ctx, roomID); err != nil {
			return writeErr(err, "private space has reservations", "delete private space")
		}
		s.logger.InfoContext(ctx, "private space deleted",
			"request_id", requestcontext.RequestID(ctx),
			"private_space_id", roomID.String(),
			"actor_id", actor.ID.String(),
		)
		return nil
	})
}

// checkReferences verifies that the city and amenities a listing points at exist.
func (s *Service) checkReferences(ctx context.Context, cityID *id.CityID, amenityIDs []id.AmenityID) error {
	if cityID != nil {
		if _, err := s.catalog.FindCity(ctx, *cityID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeValidation, "colivingCityId does not reference a known city")
			}
			return loadErr(err, "city")
		}
	}
	if len(amenityIDs) == 0 {
		return nil
	}
	missing, err := s.catalog.MissingAmenities(ctx, amenityIDs)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check amenities")
	}
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.String()
		}
		return dErrors.New(dErrors.CodeValidation, "unknown amenities: "+strings.Join(names, ", "))
	}
	return nil
}
