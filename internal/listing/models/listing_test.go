package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

func newSpace(t *testing.T) *ColivingSpace {
	t.Helper()
	s, err := NewColivingSpace(
		id.ColivingSpaceID(uuid.New()),
		id.UserID(uuid.New()),
		SpaceDetails{Title: "Maison Bleue", RoomCount: 4, CapacityMax: 6},
		time.Now(),
	)
	require.NoError(t, err)
	return s
}

func TestColivingSpaceLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("created unpublished", func(t *testing.T) {
		s := newSpace(t)
		assert.False(t, s.IsActive)
		assert.Equal(t, ListingDraft, s.State())
		assert.Nil(t, s.UpdatedAt)
	})

	t.Run("publish then publish again is rejected", func(t *testing.T) {
		s := newSpace(t)
		require.NoError(t, s.Publish(now))
		assert.True(t, s.IsActive)
		require.NotNil(t, s.UpdatedAt)
		assert.Equal(t, now, *s.UpdatedAt)

		err := s.Publish(now.Add(time.Minute))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		assert.Contains(t, err.Error(), "already published")
		assert.Equal(t, now, *s.UpdatedAt, "rejected transition must not touch UpdatedAt")
	})

	t.Run("suspend an unpublished space is rejected", func(t *testing.T) {
		s := newSpace(t)
		err := s.Suspend(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		assert.Contains(t, err.Error(), "already suspended")
	})

	t.Run("suspend returns to draft", func(t *testing.T) {
		s := newSpace(t)
		require.NoError(t, s.Publish(now))
		require.NoError(t, s.Suspend(now.Add(time.Hour)))
		assert.False(t, s.IsActive)
		assert.Equal(t, now.Add(time.Hour), *s.UpdatedAt)
	})
}

func TestNewColivingSpaceValidation(t *testing.T) {
	_, err := NewColivingSpace(id.ColivingSpaceID(uuid.New()), id.UserID{}, SpaceDetails{Title: "x"}, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewColivingSpace(id.ColivingSpaceID(uuid.New()), id.UserID(uuid.New()), SpaceDetails{}, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestApplyDetailsKeepsOwnership(t *testing.T) {
	s := newSpace(t)
	owner := s.OwnerID
	require.NoError(t, s.ApplyDetails(SpaceDetails{Title: "Renamed", RoomCount: 2}, time.Now()))
	assert.Equal(t, owner, s.OwnerID)
	assert.Equal(t, "Renamed", s.Title)
	assert.NotNil(t, s.UpdatedAt)
}

func TestPrivateSpaceLifecycle(t *testing.T) {
	now := time.Now()
	p, err := NewPrivateSpace(
		id.PrivateSpaceID(uuid.New()),
		id.ColivingSpaceID(uuid.New()),
		RoomDetails{Title: "Chambre 1", Capacity: 1, PricePerMonth: 650},
		now,
	)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	require.NoError(t, p.Publish(now))
	assert.True(t, dErrors.HasCode(p.Publish(now), dErrors.CodeInvalidTransition))
	require.NoError(t, p.Suspend(now))
	assert.True(t, dErrors.HasCode(p.Suspend(now), dErrors.CodeInvalidTransition))
}

func TestRoomDetailsValidation(t *testing.T) {
	d := RoomDetails{Title: "  Chambre  ", Capacity: 0}
	d.Normalize()
	assert.Equal(t, "Chambre", d.Title)
	assert.Error(t, d.validate())

	d.Capacity = 2
	assert.NoError(t, d.validate())

	d.PricePerMonth = -1
	assert.Error(t, d.validate())
}
