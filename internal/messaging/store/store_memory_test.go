package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coliving/internal/messaging/models"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

func TestScopedMessageListing(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	alice, bob, carol := id.UserID(uuid.New()), id.UserID(uuid.New()), id.UserID(uuid.New())
	sent := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	send := func(from, to id.UserID) *models.Message {
		sent = sent.Add(time.Minute)
		m, err := models.NewMessage(id.MessageID(uuid.New()), from, to, "bonjour", sent)
		require.NoError(t, err)
		require.NoError(t, s.CreateMessage(ctx, m))
		return m
	}
	first := send(alice, bob)
	send(bob, alice)
	last := send(carol, bob)

	cases := []struct {
		name   string
		scope  policy.Scope
		filter models.Filter
		want   int
	}{
		{"staff see all", policy.Scope{Kind: policy.ScopeAll}, models.Filter{}, 3},
		{"participant sees both directions", policy.Scope{Kind: policy.ScopeParticipant, UserID: alice}, models.Filter{}, 2},
		{"receiver filter within scope", policy.Scope{Kind: policy.ScopeParticipant, UserID: bob}, models.Filter{ReceiverID: &bob}, 2},
		{"sender filter cannot widen scope", policy.Scope{Kind: policy.ScopeParticipant, UserID: alice}, models.Filter{SenderID: &carol}, 0},
		{"anonymous sees nothing", policy.Scope{Kind: policy.ScopeNone}, models.Filter{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, total, err := s.ListMessages(ctx, tc.scope, tc.filter, paging.First())
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
			assert.Len(t, items, tc.want)
		})
	}

	t.Run("newest first", func(t *testing.T) {
		items, _, err := s.ListMessages(ctx, policy.Scope{Kind: policy.ScopeAll}, models.Filter{}, paging.First())
		require.NoError(t, err)
		assert.Equal(t, last.ID, items[0].ID)
		assert.Equal(t, first.ID, items[2].ID)
	})

	t.Run("seen messages drop out of the unseen filter", func(t *testing.T) {
		m, err := s.LockMessage(ctx, first.ID)
		require.NoError(t, err)
		m.MarkSeen(sent)
		require.NoError(t, s.UpdateMessage(ctx, m))

		_, total, err := s.ListMessages(ctx, policy.Scope{Kind: policy.ScopeAll}, models.Filter{Unseen: true}, paging.First())
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("stored copies are isolated", func(t *testing.T) {
		m, err := s.FindMessage(ctx, last.ID)
		require.NoError(t, err)
		m.Content = "changed"
		again, err := s.FindMessage(ctx, last.ID)
		require.NoError(t, err)
		assert.Equal(t, "bonjour", again.Content)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := s.FindMessage(ctx, id.MessageID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.CreateMessage(ctx, first), sentinel.ErrConflict)
	})
}
