package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, TokenID(ctx))
	assert.True(t, TokenExpiry(ctx).IsZero())

	fixed := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	ctx = WithTime(ctx, fixed)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "Firefox/Linux")
	ctx = WithToken(ctx, "jti-1", fixed.Add(time.Hour))

	assert.Equal(t, fixed, Now(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "Firefox/Linux", UserAgent(ctx))
	assert.Equal(t, "jti-1", TokenID(ctx))
	assert.Equal(t, fixed.Add(time.Hour), TokenExpiry(ctx))
}
