package models

import (
	"strings"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

const maxTitleLength = 255

// SpaceDetails are the owner-editable fields of a coliving space.
type SpaceDetails struct {
	Title       string         `json:"titleColivingSpace"`
	Description string         `json:"descriptionColivingSpace"`
	HousingType string         `json:"housingType"`
	RoomCount   int            `json:"roomCount"`
	TotalAreaM2 float64        `json:"totalAreaM2"`
	CapacityMax int            `json:"capacityMax"`
	CityID      *id.CityID     `json:"colivingCityId,omitempty"`
	AmenityIDs  []id.AmenityID `json:"amenityIds"`
}

// Normalize trims user-provided text.
func (d *SpaceDetails) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.HousingType = strings.TrimSpace(d.HousingType)
}

func (d SpaceDetails) validate() error {
	if d.Title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "titleColivingSpace is required")
	}
	if len(d.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "titleColivingSpace must be 255 characters or less")
	}
	if d.RoomCount < 0 || d.CapacityMax < 0 || d.TotalAreaM2 < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "counts and areas cannot be negative")
	}
	return nil
}

// RoomDetails are the owner-editable fields of a private space.
type RoomDetails struct {
	Title         string         `json:"titlePrivateSpace"`
	Description   string         `json:"descriptionPrivateSpace"`
	Capacity      int            `json:"capacity"`
	AreaM2        float64        `json:"areaM2"`
	PricePerMonth float64        `json:"pricePerMonth"`
	AmenityIDs    []id.AmenityID `json:"amenityIds"`
}

func (d *RoomDetails) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
}

func (d RoomDetails) validate() error {
	if d.Title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "titlePrivateSpace is required")
	}
	if len(d.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "titlePrivateSpace must be 255 characters or less")
	}
	if d.Capacity < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "capacity must be at least 1")
	}
	if d.AreaM2 < 0 || d.PricePerMonth < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "area and price cannot be negative")
	}
	return nil
}
