package lockout

import (
	"context"
	"sync"
	"time"
)

// InMemory keeps records in a map for single-instance deployments.
type InMemory struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*Record)}
}

func (m *InMemory) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *InMemory) RecordFailure(_ context.Context, key string, now time.Time, window time.Duration) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok || now.Sub(rec.LastFailureAt) > window {
		rec = &Record{}
		m.records[key] = rec
	}
	rec.Failures++
	rec.LastFailureAt = now
	cp := *rec
	return &cp, nil
}

func (m *InMemory) Lock(_ context.Context, key string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		rec = &Record{}
		m.records[key] = rec
	}
	rec.Failures = 0
	rec.LockedUntil = &until
	return nil
}

func (m *InMemory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}
