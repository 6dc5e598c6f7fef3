package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client key
type ClientLimiter struct {
	limiters map[string]*clientEntry
	mu       sync.Mutex
	defaults RateLimitConfig
	now      func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
	}
}

func NewClientLimiter(config RateLimitConfig) *ClientLimiter {
	if config.BurstSize < 1 {
		config.BurstSize = 1
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		defaults: config,
		now:      time.Now,
	}
}

func (c *ClientLimiter) GetLimiter(client string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.limiters[client]
	if !exists {
		entry = &clientEntry{
			limiter: rate.NewLimiter(rate.Limit(c.defaults.RequestsPerSecond), c.defaults.BurstSize),
		}
		c.limiters[client] = entry
	}
	entry.lastSeen = c.now()
	return entry.limiter
}

// Allow reports whether client may make a request now
func (c *ClientLimiter) Allow(client string) bool {
	return c.GetLimiter(client).AllowN(c.now(), 1)
}

// Len returns the number of tracked clients
func (c *ClientLimiter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

// Prune forgets clients idle for longer than maxIdle
func (c *ClientLimiter) Prune(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxIdle)
	removed := 0
	for client, entry := range c.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(c.limiters, client)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes idle clients every interval until ctx is done
func (c *ClientLimiter) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune(maxIdle)
		}
	}
}
