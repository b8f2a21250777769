package prediction

import (
	"context"
	"sync"
	"time"
)

// cached holds one upstream value with a freshness deadline. On fetch errors
// the previous value is served until it is older than staleTTL.
type cached[T any] struct {
	mu        sync.RWMutex
	value     T
	ok        bool
	fetchedAt time.Time
	expiry    time.Time
}

func (c *cached[T]) get(
	ctx context.Context,
	ttl, staleTTL time.Duration,
	fetch func(context.Context) (T, error),
) (T, bool, error) {
	c.mu.RLock()
	if c.ok && time.Now().Before(c.expiry) {
		v := c.value
		c.mu.RUnlock()
		return v, false, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check: another goroutine might have refreshed while we waited
	if c.ok && time.Now().Before(c.expiry) {
		return c.value, false, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		if c.ok && time.Now().Before(c.fetchedAt.Add(staleTTL)) {
			return c.value, true, nil
		}
		var zero T
		return zero, false, err
	}

	c.value = v
	c.ok = true
	c.fetchedAt = time.Now()
	c.expiry = c.fetchedAt.Add(ttl)
	return v, false, nil
}

func (c *cached[T]) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiry = time.Time{}
}

func (c *cached[T]) status() (fetchedAt time.Time, has bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt, c.ok
}
