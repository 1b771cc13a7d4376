package models

import (
	"strings"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// City is a staff-managed reference city listings can be attached to.
type City struct {
	ID   id.CityID `json:"id"`
	Name string    `json:"name"`
}

func NewCity(cityID id.CityID, name string) (*City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "city name cannot be empty")
	}
	if len(name) > 100 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "city name must be 100 characters or less")
	}
	return &City{ID: cityID, Name: name}, nil
}

// Amenity is a staff-managed feature (wifi, laundry, ...) spaces can reference.
type Amenity struct {
	ID          id.AmenityID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	AmenityType string       `json:"amenityType"`
}

func NewAmenity(amenityID id.AmenityID, name, description, amenityType string) (*Amenity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amenity name cannot be empty")
	}
	return &Amenity{
		ID:          amenityID,
		Name:        name,
		Description: strings.TrimSpace(description),
		AmenityType: strings.TrimSpace(amenityType),
	}, nil
}
