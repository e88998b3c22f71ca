// Package infra holds the small shared primitives the upstream-facing
// services are built on: a TTL cache, a politeness pacer, and a token
// bucket for feed polling.
package infra

import (
	"context"
	"sync"
	"time"
)

// --- TTL cache ---

type entry struct {
	value   any
	expires time.Time
}

// Cache is a concurrency-safe in-memory TTL cache. It is the explicit
// form of the lookup-or-fetch-and-store contract: callers Get, fetch on
// miss, then Set. Expired entries linger until overwritten or swept by
// Cleanup; Get treats them as misses either way.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewCache returns an empty cache whose Set applies the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get returns the live value for key. A missing or expired entry is
// (nil, false); refreshing it is the caller's job on the next fetch.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !e.expires.After(time.Now()) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key for a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Cleanup sweeps out entries whose TTL has passed.
func (c *Cache) Cleanup() {
	now := time.Now()
	c.mu.Lock()
	for k, e := range c.entries {
		if !e.expires.After(now) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len counts stored entries, expired-but-unswept ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// --- Politeness pacer ---

// Pacer inserts a fixed courtesy delay after successful upstream
// fetches so repeated requests do not hammer the public API. Cache hits
// never pace.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer with the given delay. A zero or negative
// delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Pause blocks for the configured delay. Context cancellation cuts the
// nap short; the pause never reports an error since the fetch it
// follows has already succeeded.
func (p *Pacer) Pause(ctx context.Context) {
	if p == nil || p.delay <= 0 {
		return
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Delay returns the configured pause duration.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// --- Rate limiter ---

// RateLimiter is a token bucket, used to space out back-to-back RSS
// feed requests. The bucket starts full and gains one token per rate
// interval, capped at max.
type RateLimiter struct {
	mu     sync.Mutex
	tokens int
	max    int
	rate   time.Duration
	last   time.Time
}

// NewRateLimiter allows bursts of max requests, refilled every rate.
func NewRateLimiter(max int, rate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens: max,
		max:    max,
		rate:   rate,
		last:   time.Now(),
	}
}

// Wait takes a token, blocking until one is available or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// take refills the bucket for the time elapsed since the last refill
// and claims one token if any are left.
func (rl *RateLimiter) take() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if elapsed := time.Since(rl.last); elapsed >= rl.rate {
		periods := int(elapsed / rl.rate)
		rl.tokens = min(rl.tokens+periods, rl.max)
		rl.last = rl.last.Add(time.Duration(periods) * rl.rate)
	}
	if rl.tokens == 0 {
		return false
	}
	rl.tokens--
	return true
}
