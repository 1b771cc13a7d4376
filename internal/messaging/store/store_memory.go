// Package store persists direct messages.
package store

import (
	"context"
	"sort"
	"sync"

	"coliving/internal/messaging/models"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	messages map[id.MessageID]*models.Message
}

func NewInMemory() *InMemory {
	return &InMemory{messages: make(map[id.MessageID]*models.Message)}
}

func (s *InMemory) CreateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; ok {
		return sentinel.ErrConflict
	}
	s.messages[m.ID] = m.Clone()
	return nil
}

func (s *InMemory) FindMessage(_ context.Context, msgID id.MessageID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[msgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *InMemory) LockMessage(ctx context.Context, msgID id.MessageID) (*models.Message, error) {
	return s.FindMessage(ctx, msgID)
}

func (s *InMemory) UpdateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.messages[m.ID] = m.Clone()
	return nil
}

// ListMessages returns the newest messages first.
func (s *InMemory) ListMessages(_ context.Context, scope policy.Scope, filter models.Filter, page paging.Page) ([]*models.Message, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if scope.MatchesMessage(m.SenderID, m.ReceiverID) && filter.Matches(m) {
			matched = append(matched, m.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SentAt.Equal(matched[j].SentAt) {
			return matched[i].SentAt.After(matched[j].SentAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	lo, hi := page.Window(len(matched))
	return matched[lo:hi], len(matched), nil
}

// ReferencesUser reports whether the user sent or received any message.
func (s *InMemory) ReferencesUser(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.Involves(userID) {
			return true, nil
		}
	}
	return false, nil
}
