package handler

import (
	"net/http"
	"strconv"
	"strings"

	"coliving/internal/listing/models"
	"coliving/internal/listing/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// SuspendRequest is the optional body of a suspend call.
type SuspendRequest struct {
	Reason string `json:"reason"`
}

func (r *SuspendRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

// CreatePrivateSpaceRequest names the parent space next to the room fields.
type CreatePrivateSpaceRequest struct {
	ColivingSpaceID string `json:"colivingSpaceId"`
	models.RoomDetails
}

func (r *CreatePrivateSpaceRequest) Validate() error {
	if strings.TrimSpace(r.ColivingSpaceID) == "" {
		return dErrors.New(dErrors.CodeValidation, "colivingSpaceId is required")
	}
	return nil
}

type CityRequest struct {
	Name string `json:"name"`
}

func (r *CityRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CityRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type AmenityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AmenityType string `json:"amenityType"`
}

func (r *AmenityRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.AmenityType = strings.TrimSpace(r.AmenityType)
}

func (r *AmenityRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func (r *AmenityRequest) input() service.AmenityInput {
	return service.AmenityInput{Name: r.Name, Description: r.Description, AmenityType: r.AmenityType}
}

func parseBool(raw, field string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, field+" must be true or false")
	}
	return &b, nil
}

// spaceFilter reads ?ownerId=&colivingCityId=&housingType=&isActive=.
func spaceFilter(r *http.Request) (models.SpaceFilter, error) {
	q := r.URL.Query()
	var f models.SpaceFilter
	if raw := q.Get("ownerId"); raw != "" {
		owner, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.OwnerID = &owner
	}
	if raw := q.Get("colivingCityId"); raw != "" {
		city, err := id.ParseCityID(raw)
		if err != nil {
			return f, err
		}
		f.CityID = &city
	}
	f.HousingType = strings.TrimSpace(q.Get("housingType"))
	active, err := parseBool(q.Get("isActive"), "isActive")
	if err != nil {
		return f, err
	}
	f.IsActive = active
	return f, nil
}

// roomFilter reads ?colivingSpaceId=&isActive=.
func roomFilter(r *http.Request) (models.RoomFilter, error) {
	q := r.URL.Query()
	var f models.RoomFilter
	if raw := q.Get("colivingSpaceId"); raw != "" {
		space, err := id.ParseColivingSpaceID(raw)
		if err != nil {
			return f, err
		}
		f.ColivingSpaceID = &space
	}
	active, err := parseBool(q.Get("isActive"), "isActive")
	if err != nil {
		return f, err
	}
	f.IsActive = active
	return f, nil
}
