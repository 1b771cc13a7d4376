// Package store persists reservations and their reviews.
package store

import (
	"context"
	"sort"
	"sync"

	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

// OwnerResolver finds the owner controlling a reservation's space. The in-memory
// store needs it to apply owner-scoped listings.
type OwnerResolver interface {
	ControllingOwner(ctx context.Context, resource any) (id.UserID, error)
}

// InMemory keeps reservations and reviews in process memory.
type InMemory struct {
	mu           sync.RWMutex
	reservations map[id.ReservationID]*models.Reservation
	reviews      map[id.ReviewID]*models.Review
	owners       OwnerResolver
}

func NewInMemory(owners OwnerResolver) *InMemory {
	return &InMemory{
		reservations: make(map[id.ReservationID]*models.Reservation),
		reviews:      make(map[id.ReviewID]*models.Review),
		owners:       owners,
	}
}

func (s *InMemory) CreateReservation(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; ok {
		return sentinel.ErrConflict
	}
	s.reservations[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindReservation(_ context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[reservationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) LockReservation(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	return s.FindReservation(ctx, reservationID)
}

func (s *InMemory) UpdateReservation(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.reservations[r.ID] = r.Clone()
	return nil
}

// DeleteReservation drops the reservation together with its review.
func (s *InMemory) DeleteReservation(_ context.Context, reservationID id.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[reservationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.reservations, reservationID)
	for reviewID, rv := range s.reviews {
		if rv.ReservationID == reservationID {
			delete(s.reviews, reviewID)
		}
	}
	return nil
}

// ListReservations applies scope and filter before paging, so totals only count
// rows the caller may see.
func (s *InMemory) ListReservations(ctx context.Context, scope policy.Scope, filter models.Filter, page paging.Page) ([]*models.Reservation, int, error) {
	s.mu.RLock()
	candidates := make([]*models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		if filter.Matches(r) {
			candidates = append(candidates, r.Clone())
		}
	}
	s.mu.RUnlock()

	matched := candidates[:0]
	for _, r := range candidates {
		ok, err := s.visible(ctx, scope, r)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	lo, hi := page.Window(len(matched))
	return matched[lo:hi], len(matched), nil
}

func (s *InMemory) visible(ctx context.Context, scope policy.Scope, r *models.Reservation) (bool, error) {
	if scope.Kind != policy.ScopeOwner {
		return scope.MatchesReservation(r.ClientID, id.UserID{}), nil
	}
	if s.owners == nil {
		return false, nil
	}
	owner, err := s.owners.ControllingOwner(ctx, r)
	if err != nil {
		return false, err
	}
	return scope.MatchesReservation(r.ClientID, owner), nil
}

func (s *InMemory) CountByPrivateSpace(_ context.Context, roomID id.PrivateSpaceID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.reservations {
		if r.PrivateSpaceID == roomID {
			n++
		}
	}
	return n, nil
}

// CreateReview returns sentinel.ErrConflict when the reservation already has one.
func (s *InMemory) CreateReview(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[review.ReservationID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, rv := range s.reviews {
		if rv.ID == review.ID || rv.ReservationID == review.ReservationID {
			return sentinel.ErrConflict
		}
	}
	rv := *review
	s.reviews[review.ID] = &rv
	return nil
}

func (s *InMemory) FindReview(_ context.Context, reviewID id.ReviewID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rv, ok := s.reviews[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rv
	return &out, nil
}

func (s *InMemory) DeleteReview(_ context.Context, reviewID id.ReviewID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[reviewID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.reviews, reviewID)
	return nil
}

func (s *InMemory) ListReviews(_ context.Context, filter models.ReviewFilter, page paging.Page) ([]*models.Review, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.Review, 0, len(s.reviews))
	for _, rv := range s.reviews {
		if filter.Matches(rv) {
			cp := *rv
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	lo, hi := page.Window(len(matched))
	return matched[lo:hi], len(matched), nil
}

// ReferencesUser reports whether the user booked a room or wrote a review.
func (s *InMemory) ReferencesUser(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.ClientID == userID {
			return true, nil
		}
	}
	for _, rv := range s.reviews {
		if rv.AuthorID == userID {
			return true, nil
		}
	}
	return false, nil
}
