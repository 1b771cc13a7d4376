package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryRecord(t *testing.T) {
	e := Entry{
		ID:          "0b7e3c8e-7d37-4a8a-9a4c-5f0f9d6c2a11",
		AggregateID: "ColivingSpace:42",
		EventType:   "listing_published",
		Payload:     []byte(`{"action":"listing_published"}`),
	}
	rec := e.Record("coliving.audit")

	assert.Equal(t, "coliving.audit", rec.Topic)
	assert.Equal(t, []byte("ColivingSpace:42"), rec.Key)
	assert.JSONEq(t, `{"action":"listing_published"}`, string(rec.Value))
	assert.Len(t, rec.Headers, 2)
	assert.Equal(t, "event_type", rec.Headers[1].Key)
	assert.Equal(t, []byte("listing_published"), rec.Headers[1].Value)
}

func TestOptionsIgnoreNonPositiveValues(t *testing.T) {
	r := New(nil, nil, "t", WithBatchSize(0), WithPollInterval(-1))
	assert.Equal(t, 100, r.batch)
	assert.Positive(t, r.interval)

	r = New(nil, nil, "t", WithBatchSize(5))
	assert.Equal(t, 5, r.batch)
}
