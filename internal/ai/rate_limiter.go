package ai

import (
	"sync"
	"time"
)

// RateLimiter spaces outbound chat-completion calls so batch pricing runs
// stay under the provider's requests-per-second cap.
type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// WaitTurn blocks until the caller's slot. Slots are reserved in arrival
// order under the lock, so concurrent callers never share one.
func (r *RateLimiter) WaitTurn() {
	r.mu.Lock()
	now := r.now()
	scheduled := now
	if r.nextAllowedAt.After(now) {
		scheduled = r.nextAllowedAt
	}
	r.nextAllowedAt = scheduled.Add(r.interval)
	r.mu.Unlock()

	if wait := scheduled.Sub(now); wait > 0 {
		r.sleep(wait)
	}
}
