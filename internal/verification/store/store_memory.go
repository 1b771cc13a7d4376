// Package store persists listing and identity verifications.
package store

import (
	"context"
	"sort"
	"sync"

	"coliving/internal/verification/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	spaces map[id.VerificationID]*models.VerificationSpace
	users  map[id.VerificationID]*models.VerificationUser
}

func NewInMemory() *InMemory {
	return &InMemory{
		spaces: make(map[id.VerificationID]*models.VerificationSpace),
		users:  make(map[id.VerificationID]*models.VerificationUser),
	}
}

func (s *InMemory) CreateSpaceVerification(_ context.Context, v *models.VerificationSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[v.ID]; ok {
		return sentinel.ErrConflict
	}
	s.spaces[v.ID] = v.Clone()
	return nil
}

func (s *InMemory) FindSpaceVerification(_ context.Context, vID id.VerificationID) (*models.VerificationSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.spaces[vID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *InMemory) LockSpaceVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationSpace, error) {
	return s.FindSpaceVerification(ctx, vID)
}

func (s *InMemory) UpdateSpaceVerification(_ context.Context, v *models.VerificationSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[v.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.spaces[v.ID] = v.Clone()
	return nil
}

func (s *InMemory) ListSpaceVerifications(_ context.Context, filter models.SpaceFilter, page paging.Page) ([]*models.VerificationSpace, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.VerificationSpace, 0, len(s.spaces))
	for _, v := range s.spaces {
		if filter.Matches(v) {
			matched = append(matched, v.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return before(matched[i].CreatedAt.UnixNano(), matched[j].CreatedAt.UnixNano(), matched[i].ID, matched[j].ID)
	})
	lo, hi := page.Window(len(matched))
	return matched[lo:hi], len(matched), nil
}

func (s *InMemory) CreateUserVerification(_ context.Context, v *models.VerificationUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[v.ID]; ok {
		return sentinel.ErrConflict
	}
	s.users[v.ID] = v.Clone()
	return nil
}

func (s *InMemory) FindUserVerification(_ context.Context, vID id.VerificationID) (*models.VerificationUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.users[vID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *InMemory) LockUserVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationUser, error) {
	return s.FindUserVerification(ctx, vID)
}

func (s *InMemory) UpdateUserVerification(_ context.Context, v *models.VerificationUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[v.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[v.ID] = v.Clone()
	return nil
}

func (s *InMemory) ListUserVerifications(_ context.Context, filter models.UserFilter, page paging.Page) ([]*models.VerificationUser, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.VerificationUser, 0, len(s.users))
	for _, v := range s.users {
		if filter.Matches(v) {
			matched = append(matched, v.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return before(matched[i].CreatedAt.UnixNano(), matched[j].CreatedAt.UnixNano(), matched[i].ID, matched[j].ID)
	})
	lo, hi := page.Window(len(matched))
	return matched[lo:hi], len(matched), nil
}

// before orders by creation time, then id.
func before(a, b int64, aID, bID id.VerificationID) bool {
	if a != b {
		return a < b
	}
	return aID.String() < bID.String()
}

// ReferencesUser reports whether the user is the subject or verifier of any
// verification.
func (s *InMemory) ReferencesUser(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.spaces {
		if v.VerifierID == userID {
			return true, nil
		}
	}
	for _, v := range s.users {
		if v.SubjectID == userID || (v.VerifierID != nil && *v.VerifierID == userID) {
			return true, nil
		}
	}
	return false, nil
}
