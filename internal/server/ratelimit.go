package server

import (
	"sync"
	"time"
)

// rateLimiter is an in-memory token bucket keyed per caller. Buckets refill
// continuously at limit tokens per window and hold at most burst tokens.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	burst  int
	now    func() time.Time

	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func newRateLimiter(limit int, window time.Duration, burst int) *rateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = limit
	}
	return &rateLimiter{
		limit:   limit,
		window:  window,
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = b
	}

	refill := now.Sub(b.lastSeen).Seconds() * float64(rl.limit) / rl.window.Seconds()
	b.tokens += refill
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastSeen = now

	if len(rl.buckets) > 10000 {
		rl.evictStale(now)
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *rateLimiter) evictStale(now time.Time) {
	cutoff := now.Add(-2 * rl.window)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}
