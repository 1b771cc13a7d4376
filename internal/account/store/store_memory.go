// Package store persists user accounts. Email addresses are unique.
package store

import (
	"context"
	"sort"
	"sync"

	"coliving/internal/account/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

// CreateUser returns sentinel.ErrConflict when the email is taken.
func (s *InMemory) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return sentinel.ErrConflict
	}
	s.users[u.ID] = u.Clone()
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemory) FindUser(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *InMemory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.users[userID].Clone(), nil
}

func (s *InMemory) LockUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.FindUser(ctx, userID)
}

func (s *InMemory) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byEmail[u.Email]; taken && owner != u.ID {
		return sentinel.ErrConflict
	}
	delete(s.byEmail, existing.Email)
	s.users[u.ID] = u.Clone()
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemory) DeleteUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, userID)
	return nil
}

func (s *InMemory) ListUsers(_ context.Context, filter models.Filter, page paging.Page) ([]*models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Matches(u) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	lo, hi := page.Window(len(matched))
	out := make([]*models.User, 0, hi-lo)
	for _, u := range matched[lo:hi] {
		out = append(out, u.Clone())
	}
	return out, len(matched), nil
}
