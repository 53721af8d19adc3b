package ratelimiter

import (
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// FixedWindowRateLimiter counts requests per identifier in windows that start
// at the identifier's first request. State is process-local.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := newFixedWindowLimiter(limit, window, time.Now)
	go rl.cleanup()
	return rl
}

func newFixedWindowLimiter(limit int, window time.Duration, now func() time.Time) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     now,
		done:    make(chan struct{}),
	}
}

func (rl *FixedWindowRateLimiter) Allow(identifier string) Result {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[identifier]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now}
		rl.clients[identifier] = b
	}

	resetIn := b.windowStart.Add(rl.window).Sub(now)

	if b.count >= rl.limit {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}

	b.count++
	return Result{Allowed: true, Remaining: rl.limit - b.count, ResetIn: resetIn}
}

func (rl *FixedWindowRateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

// cleanup drops buckets whose window has elapsed so idle clients don't pin memory.
func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *FixedWindowRateLimiter) evictExpired() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, b := range rl.clients {
		if now.Sub(b.windowStart) >= rl.window {
			delete(rl.clients, id)
		}
	}
}
