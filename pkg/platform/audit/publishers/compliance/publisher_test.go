package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coliving/pkg/domain"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/audit/store/memory"
)

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	actor := id.UserID(uuid.New())

	err := pub.Emit(context.Background(), audit.Event{
		ActorID: actor,
		Subject: "coliving_space:123",
		Action:  string(audit.EventListingPublished),
	})
	require.NoError(t, err)

	events, err := store.ListByActor(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_FailsClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	store.FailWith(errors.New("outbox unavailable"))
	pub := New(store)

	err := pub.Emit(context.Background(), audit.Event{
		Subject: "private_space:1",
		Action:  string(audit.EventListingSuspended),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox unavailable")
}

func TestPublisher_RequiresFields(t *testing.T) {
	pub := New(memory.NewInMemoryStore())
	assert.Error(t, pub.Emit(context.Background(), audit.Event{Subject: "x"}))
	assert.Error(t, pub.Emit(context.Background(), audit.Event{Action: "x"}))
}
