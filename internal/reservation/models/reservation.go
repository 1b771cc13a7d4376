package models

import (
	"time"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRefused   Status = "REFUSED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// IsValid checks the enum.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRefused, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo encodes PENDING -> {CONFIRMED, REFUSED} and
// CONFIRMED -> {CANCELLED, COMPLETED}. Everything else is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRefused
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusRefused || s == StatusCancelled || s == StatusCompleted
}

// Reservation is a client's booking of a private space for [StartDate, EndDate).
//
// Invariants:
//   - StartDate < EndDate
//   - PrivateSpaceID and ClientID never change after creation
type Reservation struct {
	ID             id.ReservationID  `json:"id"`
	PrivateSpaceID id.PrivateSpaceID `json:"privateSpaceId"`
	ClientID       id.UserID         `json:"clientId"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
	IsForTwo       bool              `json:"isForTwo"`
	LodgingTax     float64           `json:"lodgingTax"`
	TotalPrice     float64           `json:"totalPrice"`
	Status         Status            `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      *time.Time        `json:"updatedAt,omitempty"`
}

// NewReservation creates a PENDING reservation.
func NewReservation(
	reservationID id.ReservationID,
	room id.PrivateSpaceID,
	client id.UserID,
	start, end time.Time,
	isForTwo bool,
	lodgingTax, totalPrice float64,
	now time.Time,
) (*Reservation, error) {
	if room.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reservation requires a private space")
	}
	if client.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reservation requires a client")
	}
	if !start.Before(end) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "startDate must be before endDate")
	}
	if lodgingTax < 0 || totalPrice < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amounts cannot be negative")
	}
	return &Reservation{
		ID:             reservationID,
		PrivateSpaceID: room,
		ClientID:       client,
		StartDate:      start,
		EndDate:        end,
		IsForTwo:       isForTwo,
		LodgingTax:     lodgingTax,
		TotalPrice:     totalPrice,
		Status:         StatusPending,
		CreatedAt:      now,
	}, nil
}

// CanTransitionTo checks a status change against the lifecycle graph.
func (r *Reservation) CanTransitionTo(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown reservation status: "+string(next))
	}
	if !r.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"reservation cannot move from "+string(r.Status)+" to "+string(next))
	}
	return nil
}

// ApplyStatus sets the status. Call CanTransitionTo first.
func (r *Reservation) ApplyStatus(next Status, now time.Time) {
	r.Status = next
	r.UpdatedAt = &now
}

// TransitionTo validates and applies a status change.
func (r *Reservation) TransitionTo(next Status, now time.Time) error {
	if err := r.CanTransitionTo(next); err != nil {
		return err
	}
	r.ApplyStatus(next, now)
	return nil
}

// Nights returns the number of nights covered.
func (r *Reservation) Nights() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}
