package backpressure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketRefill(t *testing.T) {
	clock := time.Unix(0, 0)
	tb := NewTokenBucketLimiter(2, 3)
	tb.now = func() time.Time { return clock }
	tb.lastUpdate = clock

	assert.True(t, tb.AllowN(3))
	assert.False(t, tb.Allow())

	clock = clock.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock = clock.Add(time.Hour)
	assert.True(t, tb.AllowN(3))
	assert.False(t, tb.Allow(), "refill is capped at burst")
}

func TestKeyedLimiterIsolatesClients(t *testing.T) {
	k := NewKeyedLimiter(0.001, 2, time.Minute)

	assert.True(t, k.Allow("10.0.0.1"))
	assert.True(t, k.Allow("10.0.0.1"))
	assert.False(t, k.Allow("10.0.0.1"))

	assert.True(t, k.Allow("10.0.0.2"))
	assert.Equal(t, 2, k.Len())
}
