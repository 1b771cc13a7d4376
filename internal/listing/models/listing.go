package models

import (
	"time"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// ListingState is the publication state of a listing. It is derived from the
// persisted IsActive flag.
type ListingState string

const (
	ListingDraft     ListingState = "draft"
	ListingPublished ListingState = "published"
)

// CanTransitionTo reports whether a listing in s may move to next.
// Draft and published only flip between each other.
func (s ListingState) CanTransitionTo(next ListingState) bool {
	switch s {
	case ListingDraft:
		return next == ListingPublished
	case ListingPublished:
		return next == ListingDraft
	default:
		return false
	}
}

func stateOf(active bool) ListingState {
	if active {
		return ListingPublished
	}
	return ListingDraft
}

// ColivingSpace is a property offered on the marketplace, controlled by its owner.
//
// Invariants:
//   - OwnerID is set at creation and never changes
//   - created unpublished; only staff publish or suspend it
//   - there is no delete
type ColivingSpace struct {
	ID          id.ColivingSpaceID `json:"id"`
	OwnerID     id.UserID          `json:"ownerId"`
	Title       string             `json:"titleColivingSpace"`
	Description string             `json:"descriptionColivingSpace"`
	HousingType string             `json:"housingType"`
	RoomCount   int                `json:"roomCount"`
	TotalAreaM2 float64            `json:"totalAreaM2"`
	CapacityMax int                `json:"capacityMax"`
	CityID      *id.CityID         `json:"colivingCityId,omitempty"`
	AmenityIDs  []id.AmenityID     `json:"amenityIds"`
	IsActive    bool               `json:"isActive"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   *time.Time         `json:"updatedAt,omitempty"`
}

// NewColivingSpace creates an unpublished space owned by ownerID.
func NewColivingSpace(spaceID id.ColivingSpaceID, ownerID id.UserID, details SpaceDetails, now time.Time) (*ColivingSpace, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "coliving space requires an owner")
	}
	if err := details.validate(); err != nil {
		return nil, err
	}
	s := &ColivingSpace{
		ID:        spaceID,
		OwnerID:   ownerID,
		CreatedAt: now,
	}
	s.apply(details)
	return s, nil
}

func (s *ColivingSpace) State() ListingState {
	return stateOf(s.IsActive)
}

// ApplyDetails replaces the descriptive fields. Ownership and state are untouched.
func (s *ColivingSpace) ApplyDetails(details SpaceDetails, now time.Time) error {
	if err := details.validate(); err != nil {
		return err
	}
	s.apply(details)
	s.UpdatedAt = &now
	return nil
}

func (s *ColivingSpace) apply(d SpaceDetails) {
	s.Title = d.Title
	s.Description = d.Description
	s.HousingType = d.HousingType
	s.RoomCount = d.RoomCount
	s.TotalAreaM2 = d.TotalAreaM2
	s.CapacityMax = d.CapacityMax
	s.CityID = d.CityID
	s.AmenityIDs = append([]id.AmenityID(nil), d.AmenityIDs...)
}

// CanPublish checks the draft -> published transition.
func (s *ColivingSpace) CanPublish() error {
	if !s.State().CanTransitionTo(ListingPublished) {
		return dErrors.New(dErrors.CodeInvalidTransition, "coliving space is already published")
	}
	return nil
}

// ApplyPublish marks the space published. Call CanPublish first.
func (s *ColivingSpace) ApplyPublish(now time.Time) {
	s.IsActive = true
	s.UpdatedAt = &now
}

// Publish validates and applies publication in one call.
func (s *ColivingSpace) Publish(now time.Time) error {
	if err := s.CanPublish(); err != nil {
		return err
	}
	s.ApplyPublish(now)
	return nil
}

// CanSuspend checks the published -> draft transition.
func (s *ColivingSpace) CanSuspend() error {
	if !s.State().CanTransitionTo(ListingDraft) {
		return dErrors.New(dErrors.CodeInvalidTransition, "coliving space is already suspended")
	}
	return nil
}

// ApplySuspend marks the space unpublished. Call CanSuspend first.
func (s *ColivingSpace) ApplySuspend(now time.Time) {
	s.IsActive = false
	s.UpdatedAt = &now
}

// Suspend validates and applies suspension in one call.
func (s *ColivingSpace) Suspend(now time.Time) error {
	if err := s.CanSuspend(); err != nil {
		return err
	}
	s.ApplySuspend(now)
	return nil
}

// PrivateSpace is a bookable room inside a coliving space.
//
// Invariants:
//   - ColivingSpaceID is set at creation and never changes
//   - cannot be published while the parent space is unpublished (checked by policy)
type PrivateSpace struct {
	ID              id.PrivateSpaceID  `json:"id"`
	ColivingSpaceID id.ColivingSpaceID `json:"colivingSpaceId"`
	Title           string             `json:"titlePrivateSpace"`
	Description     string             `json:"descriptionPrivateSpace"`
	Capacity        int                `json:"capacity"`
	AreaM2          float64            `json:"areaM2"`
	PricePerMonth   float64            `json:"pricePerMonth"`
	AmenityIDs      []id.AmenityID     `json:"amenityIds"`
	IsActive        bool               `json:"isActive"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       *time.Time         `json:"updatedAt,omitempty"`
}

// NewPrivateSpace creates an unpublished room inside parent.
func NewPrivateSpace(roomID id.PrivateSpaceID, parent id.ColivingSpaceID, details RoomDetails, now time.Time) (*PrivateSpace, error) {
	if parent.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "private space requires a coliving space")
	}
	if err := details.validate(); err != nil {
		return nil, err
	}
	p := &PrivateSpace{
		ID:              roomID,
		ColivingSpaceID: parent,
		CreatedAt:       now,
	}
	p.apply(details)
	return p, nil
}

func (p *PrivateSpace) State() ListingState {
	return stateOf(p.IsActive)
}

// ApplyDetails replaces the descriptive fields. The parent link and state are untouched.
func (p *PrivateSpace) ApplyDetails(details RoomDetails, now time.Time) error {
	if err := details.validate(); err != nil {
		return err
	}
	p.apply(details)
	p.UpdatedAt = &now
	return nil
}

func (p *PrivateSpace) apply(d RoomDetails) {
	p.Title = d.Title
	p.Description = d.Description
	p.Capacity = d.Capacity
	p.AreaM2 = d.AreaM2
	p.PricePerMonth = d.PricePerMonth
	p.AmenityIDs = append([]id.AmenityID(nil), d.AmenityIDs...)
}

func (p *PrivateSpace) CanPublish() error {
	if !p.State().CanTransitionTo(ListingPublished) {
		return dErrors.New(dErrors.CodeInvalidTransition, "private space is already published")
	}
	return nil
}

func (p *PrivateSpace) ApplyPublish(now time.Time) {
	p.IsActive = true
	p.UpdatedAt = &now
}

func (p *PrivateSpace) Publish(now time.Time) error {
	if err := p.CanPublish(); err != nil {
		return err
	}
	p.ApplyPublish(now)
	return nil
}

func (p *PrivateSpace) CanSuspend() error {
	if !p.State().CanTransitionTo(ListingDraft) {
		return dErrors.New(dErrors.CodeInvalidTransition, "private space is already suspended")
	}
	return nil
}

func (p *PrivateSpace) ApplySuspend(now time.Time) {
	p.IsActive = false
	p.UpdatedAt = &now
}

func (p *PrivateSpace) Suspend(now time.Time) error {
	if err := p.CanSuspend(); err != nil {
		return err
	}
	p.ApplySuspend(now)
	return nil
}
