package security

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/audit/store/memory"
)

func TestPublisher_BestEffort(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)

	pub.Emit(context.Background(), audit.Event{Action: string(audit.EventAccessDenied), Subject: "reservation:1"})
	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)

	store.FailWith(errors.New("boom"))
	assert.NotPanics(t, func() {
		pub.Emit(context.Background(), audit.Event{Action: string(audit.EventAccessDenied)})
	})

	var nilPub *Publisher
	assert.NotPanics(t, func() { nilPub.Emit(context.Background(), audit.Event{}) })
}
