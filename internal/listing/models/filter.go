package models

import id "coliving/pkg/domain"

// SpaceFilter narrows coliving space listings by exact match. Nil fields match all.
type SpaceFilter struct {
	OwnerID     *id.UserID
	CityID      *id.CityID
	HousingType string
	IsActive    *bool
}

// Matches reports whether s passes the filter.
func (f SpaceFilter) Matches(s *ColivingSpace) bool {
	if f.OwnerID != nil && s.OwnerID != *f.OwnerID {
		return false
	}
	if f.CityID != nil && (s.CityID == nil || *s.CityID != *f.CityID) {
		return false
	}
	if f.HousingType != "" && s.HousingType != f.HousingType {
		return false
	}
	if f.IsActive != nil && s.IsActive != *f.IsActive {
		return false
	}
	return true
}

// RoomFilter narrows private space listings by exact match.
type RoomFilter struct {
	ColivingSpaceID *id.ColivingSpaceID
	IsActive        *bool
}

func (f RoomFilter) Matches(p *PrivateSpace) bool {
	if f.ColivingSpaceID != nil && p.ColivingSpaceID != *f.ColivingSpaceID {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	return true
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *ColivingSpace) Clone() *ColivingSpace {
	c := *s
	c.AmenityIDs = append([]id.AmenityID(nil), s.AmenityIDs...)
	if s.CityID != nil {
		city := *s.CityID
		c.CityID = &city
	}
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func (p *PrivateSpace) Clone() *PrivateSpace {
	c := *p
	c.AmenityIDs = append([]id.AmenityID(nil), p.AmenityIDs...)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
