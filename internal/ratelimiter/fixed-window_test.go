package ratelimiter

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestFixedWindow_DeniesSixthRequestInWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newFixedWindowLimiter(5, 60*time.Second, clock.Now)

	for i := 0; i < 5; i++ {
		res := rl.Allow("payment:10.0.0.1")
		require.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 4-i, res.Remaining)
		clock.Advance(time.Second)
	}

	res := rl.Allow("payment:10.0.0.1")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 55*time.Second, res.ResetIn)
	assert.Equal(t, 55, res.ResetSeconds())

	clock.Advance(55 * time.Second)

	res = rl.Allow("payment:10.0.0.1")
	assert.True(t, res.Allowed, "window elapsed, request should be admitted again")
	assert.Equal(t, 4, res.Remaining)
}

func TestFixedWindow_IdentifiersAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	rl := newFixedWindowLimiter(1, time.Minute, clock.Now)

	assert.True(t, rl.Allow("a").Allowed)
	assert.False(t, rl.Allow("a").Allowed)
	assert.True(t, rl.Allow("b").Allowed)
}

func TestFixedWindow_ConcurrentSameIdentifier(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	rl := newFixedWindowLimiter(10, time.Minute, clock.Now)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestFixedWindow_EvictExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	rl := newFixedWindowLimiter(3, time.Minute, clock.Now)

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("client-%d", i))
	}
	clock.Advance(30 * time.Second)
	rl.Allow("late")
	clock.Advance(31 * time.Second)

	rl.evictExpired()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "late")
}

func TestResult_ResetSecondsRoundsUp(t *testing.T) {
	assert.Equal(t, 2, Result{ResetIn: 1500 * time.Millisecond}.ResetSeconds())
	assert.Equal(t, 0, Result{}.ResetSeconds())
}
