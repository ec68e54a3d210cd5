package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := newRateLimiter(2, time.Minute)

	assert.True(t, rl.allow(now))
	assert.True(t, rl.allow(now.Add(time.Second)))
	assert.False(t, rl.allow(now.Add(2*time.Second)))

	assert.True(t, rl.allow(now.Add(time.Minute)), "new window resets the counter")
}

func TestRateLimiterDisabled(t *testing.T) {
	var nilLimiter *rateLimiter
	assert.True(t, nilLimiter.allow(time.Now()))

	rl := newRateLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		assert.True(t, rl.allow(time.Now()))
	}
}
