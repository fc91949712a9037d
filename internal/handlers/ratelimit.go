package handlers

import (
	"sync"
	"time"
)

// sweepInterval is how many Allow calls pass between full scans for
// expired buckets.
const sweepInterval = 64

// RateLimiter enforces a sliding window per caller: at most limit requests
// within window. Timestamps are pruned lazily on each check, and every
// sweepInterval checks the whole map is swept for buckets with no live
// entries, so memory stays bounded by the set of recently active callers.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	window  time.Duration
	limit   int
	now     func() time.Time
	ops     int
}

func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string][]time.Time),
		window:  window,
		limit:   limit,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (rl *RateLimiter) SetClock(now func() time.Time) { rl.now = now }

// Allow records a request for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.ops++
	if rl.ops >= sweepInterval {
		rl.ops = 0
		rl.evictExpired(cutoff)
	}

	recent := rl.buckets[key][:0]
	for _, t := range rl.buckets[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	rl.buckets[key] = recent

	return len(recent) <= rl.limit
}

// evictExpired drops every bucket whose entries all predate cutoff.
// Caller holds the lock.
func (rl *RateLimiter) evictExpired(cutoff time.Time) {
	for key, bucket := range rl.buckets {
		live := false
		for _, t := range bucket {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.buckets, key)
		}
	}
}
