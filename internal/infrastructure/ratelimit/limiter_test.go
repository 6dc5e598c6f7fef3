package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(cfg RateLimitConfig, clock *time.Time) *ClientLimiter {
	l := NewClientLimiter(cfg)
	l.now = func() time.Time { return *clock }
	return l
}

func TestAllowEnforcesBurstPerClient(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}, &clock)

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("other clients have their own bucket")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("bucket should refill after a second")
	}
}

func TestGetLimiterReusesBucket(t *testing.T) {
	l := NewClientLimiter(DefaultConfig())

	if l.GetLimiter("a") != l.GetLimiter("a") {
		t.Fatal("expected the same limiter for the same client")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 tracked client, got %d", l.Len())
	}
}

func TestPruneRemovesIdleClients(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(DefaultConfig(), &clock)

	l.Allow("old")
	clock = clock.Add(10 * time.Minute)
	l.Allow("fresh")

	if removed := l.Prune(5 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 remaining client, got %d", l.Len())
	}
}

func TestZeroBurstIsRaisedToOne(t *testing.T) {
	l := NewClientLimiter(RateLimitConfig{RequestsPerSecond: 5})
	if !l.Allow("a") {
		t.Fatal("a zero burst would reject every request")
	}
}
