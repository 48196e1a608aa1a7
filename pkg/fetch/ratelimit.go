package fetch

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum delay between fetch starts against a single
// origin. The delay is measured start-to-start: Wait records the moment it
// returns as the start of the next fetch.
type RateLimiter struct {
	mu        sync.Mutex
	delay     time.Duration
	lastStart time.Time
}

// NewRateLimiter creates a RateLimiter with the given minimum delay.
// A non-positive delay disables waiting entirely.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{delay: delay}
}

// Delay returns the configured minimum delay between fetches.
func (rl *RateLimiter) Delay() time.Duration {
	return rl.delay
}

// Wait blocks until at least the configured delay has passed since the
// previous fetch start, then records the current time as the new fetch start.
// Returns early with ctx.Err() if the context is cancelled while waiting.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.delay <= 0 {
		return ctx.Err()
	}

	rl.mu.Lock()
	var sleep time.Duration
	if !rl.lastStart.IsZero() {
		elapsed := time.Since(rl.lastStart)
		if elapsed < rl.delay {
			sleep = rl.delay - elapsed
		}
	}
	rl.mu.Unlock()

	if sleep > 0 {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rl.mu.Lock()
	rl.lastStart = time.Now()
	rl.mu.Unlock()
	return nil
}
