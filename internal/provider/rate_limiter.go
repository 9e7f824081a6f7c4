package provider

import (
	"context"
	"sync"
	"time"
)

// rateLimiter spaces requests by a fixed interval with a single global
// delay counter shared by all in-flight lookups.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &rateLimiter{interval: interval}
}

// wait blocks until this caller's slot arrives or ctx is cancelled.
func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	if r.next.Before(now) {
		r.next = now
	}
	slot := r.next
	r.next = r.next.Add(r.interval)
	r.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
