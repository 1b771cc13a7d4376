package service

import (
	"context"

	"github.com/google/uuid"

	"coliving/internal/identity"
	"coliving/internal/listing/models"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/paging"
)

// AmenityInput carries the editable amenity fields.
type AmenityInput struct {
	Name        string
	Description string
	AmenityType string
}

func (s *Service) ListCities(ctx context.Context, actor identity.Actor, page paging.Page) ([]*models.City, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceColivingCity, nil); err != nil {
		return nil, 0, err
	}
	cities, total, err := s.catalog.ListCities(ctx, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cities")
	}
	return cities, total, nil
}

func (s *Service) GetCity(ctx context.Context, actor identity.Actor, cityID id.CityID) (*models.City, error) {
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceColivingCity, nil); err != nil {
		return nil, err
	}
	city, err := s.catalog.FindCity(ctx, cityID)
	if err != nil {
		return nil, loadErr(err, "city")
	}
	return city, nil
}

func (s *Service) CreateCity(ctx context.Context, actor identity.Actor, name string) (*models.City, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceColivingCity, nil); err != nil {
		return nil, err
	}
	city, err := models.NewCity(id.CityID(uuid.New()), name)
	if err != nil {
		return nil, validation(err)
	}
	if err := s.catalog.CreateCity(ctx, city); err != nil {
		return nil, writeErr(err, "city name must be unique", "create city")
	}
	return city, nil
}

func (s *Service) RenameCity(ctx context.Context, actor identity.Actor, cityID id.CityID, name string) (*models.City, error) {
	if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceColivingCity, nil); err != nil {
		return nil, err
	}
	if _, err := s.catalog.FindCity(ctx, cityID); err != nil {
		return nil, loadErr(err, "city")
	}
	city, err := models.NewCity(cityID, name)
	if err != nil {
		return nil, validation(err)
	}
	if err := s.catalog.UpdateCity(ctx, city); err != nil {
		return nil, writeErr(err, "city name must be unique", "update city")
	}
	return city, nil
}

// DeleteCity removes a city; spaces pointing at it lose their city reference.
func (s *Service) DeleteCity(ctx context.Context, actor identity.Actor, cityID id.CityID) error {
	if err := s.policy.Require(ctx, actor, policy.OpDelete, policy.ResourceColivingCity, nil); err != nil {
		return err
	}
	if err := s.catalog.DeleteCity(ctx, cityID); err != nil {
		return loadErr(err, "city")
	}
	return nil
}

func (s *Service) ListAmenities(ctx context.Context, actor identity.Actor, page paging.Page) ([]*models.Amenity, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceAmenity, nil); err != nil {
		return nil, 0, err
	}
	amenities, total, err := s.catalog.ListAmenities(ctx, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list amenities")
	}
	return amenities, total, nil
}

func (s *Service) GetAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID) (*models.Amenity, error) {
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceAmenity, nil); err != nil {
		return nil, err
	}
	amenity, err := s.catalog.FindAmenity(ctx, amenityID)
	if err != nil {
		return nil, loadErr(err, "amenity")
	}
	return amenity, nil
}

func (s *Service) CreateAmenity(ctx context.Context, actor identity.Actor, in AmenityInput) (*models.Amenity, error) {
	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceAmenity, nil); err != nil {
		return nil, err
	}
	amenity, err := models.NewAmenity(id.AmenityID(uuid.New()), in.Name, in.Description, in.AmenityType)
	if err != nil {
		return nil, validation(err)
	}
	if err := s.catalog.CreateAmenity(ctx, amenity); err != nil {
		return nil, writeErr(err, "amenity already exists", "create amenity")
	}
	return amenity, nil
}

func (s *Service) UpdateAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID, in AmenityInput) (*models.Amenity, error) {
	if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceAmenity, nil); err != nil {
		return nil, err
	}
	if _, err := s.catalog.FindAmenity(ctx, amenityID); err != nil {
		return nil, loadErr(err, "amenity")
	}
	amenity, err := models.NewAmenity(amenityID, in.Name, in.Description, in.AmenityType)
	if err != nil {
		return nil, validation(err)
	}
	if err := s.catalog.UpdateAmenity(ctx, amenity); err != nil {
		return nil, writeErr(err, "amenity already exists", "update amenity")
	}
	return amenity, nil
}

// DeleteAmenity removes an amenity and unlinks it from every listing.
func (s *Service) DeleteAmenity(ctx context.Context, actor identity.Actor, amenityID id.AmenityID) error {
	if err := s.policy.Require(ctx, actor, policy.OpDelete, policy.ResourceAmenity, nil); err != nil {
		return err
	}
	if err := s.catalog.DeleteAmenity(ctx, amenityID); err != nil {
		return loadErr(err, "amenity")
	}
	return nil
}
