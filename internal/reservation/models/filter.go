package models

import (
	"time"

	id "coliving/pkg/domain"
)

// Filter narrows reservation listings. Nil fields match all. StartsAfter and
// EndsBefore bound the stay dates inclusively.
type Filter struct {
	Status         Status
	ClientID       *id.UserID
	PrivateSpaceID *id.PrivateSpaceID
	StartsAfter    *time.Time
	EndsBefore     *time.Time
}

func (f Filter) Matches(r *Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.ClientID != nil && r.ClientID != *f.ClientID {
		return false
	}
	if f.PrivateSpaceID != nil && r.PrivateSpaceID != *f.PrivateSpaceID {
		return false
	}
	if f.StartsAfter != nil && r.StartDate.Before(*f.StartsAfter) {
		return false
	}
	if f.EndsBefore != nil && r.EndDate.After(*f.EndsBefore) {
		return false
	}
	return true
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	ReservationID *id.ReservationID
	AuthorID      *id.UserID
}

func (f ReviewFilter) Matches(r *Review) bool {
	if f.ReservationID != nil && r.ReservationID != *f.ReservationID {
		return false
	}
	if f.AuthorID != nil && r.AuthorID != *f.AuthorID {
		return false
	}
	return true
}

// Clone returns a deep copy.
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
