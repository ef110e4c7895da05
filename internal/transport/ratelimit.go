package transport

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between consecutive requests to
// one remote service. It is a token bucket of one: a single last-sent
// timestamp guarded by a mutex. Every caller, regardless of which worker
// goroutine it runs on, contends for the same timestamp, so the outbound
// rate to the service is bounded independently of worker count.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter creates a limiter allowing ratePerSecond requests per
// second. A rate of zero or less disables limiting.
func NewRateLimiter(ratePerSecond int) *RateLimiter {
	var interval time.Duration
	if ratePerSecond > 0 {
		interval = time.Second / time.Duration(ratePerSecond)
	}
	return &RateLimiter{interval: interval}
}

// Wait blocks until the minimum inter-request interval has elapsed since
// the previous call, then records the send time. It returns early with the
// context error if ctx is canceled while sleeping.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.interval <= 0 {
		return nil
	}

	rl.mu.Lock()
	now := time.Now()
	deficit := rl.interval - now.Sub(rl.last)
	if deficit <= 0 {
		rl.last = now
		rl.mu.Unlock()
		return nil
	}
	// Claim the slot before sleeping so concurrent callers queue behind it.
	rl.last = now.Add(deficit)
	rl.mu.Unlock()

	timer := time.NewTimer(deficit)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Interval returns the configured minimum inter-request interval.
func (rl *RateLimiter) Interval() time.Duration {
	return rl.interval
}
