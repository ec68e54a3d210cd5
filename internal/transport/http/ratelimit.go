package http

import "time"

// rateLimiter is a fixed-window counter. It is owned by a single read loop
// and is not safe for concurrent use.
type rateLimiter struct {
	limit   int
	window  time.Duration
	counter int
	start   time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{limit: limit, window: window}
}

func (r *rateLimiter) allow(now time.Time) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if r.start.IsZero() || now.Sub(r.start) >= r.window {
		r.start = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
