package models

import (
	"strings"
	"time"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a client's rating of a stay. At most one per reservation.
type Review struct {
	ID            id.ReviewID      `json:"id"`
	ReservationID id.ReservationID `json:"reservationId"`
	AuthorID      id.UserID        `json:"authorId"`
	Rating        int              `json:"rating"`
	Comment       string           `json:"comment"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func NewReview(reviewID id.ReviewID, reservation id.ReservationID, author id.UserID, rating int, comment string, now time.Time) (*Review, error) {
	if reservation.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "review requires a reservation")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "rating must be between 1 and 5")
	}
	return &Review{
		ID:            reviewID,
		ReservationID: reservation,
		AuthorID:      author,
		Rating:        rating,
		Comment:       strings.TrimSpace(comment),
		CreatedAt:     now,
	}, nil
}
