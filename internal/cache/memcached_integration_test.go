//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/circuitbreaker"
)

// integrationCache connects to MEMCACHED_ADDRS (default localhost:11211) and
// skips the test when no server answers.
func integrationCache(t *testing.T) *MemcachedCache {
	t.Helper()
	addrs := os.Getenv("MEMCACHED_ADDRS")
	if addrs == "" {
		addrs = "localhost:11211"
	}
	c, err := NewMemcachedCache(addrs, 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if err := c.Ping(); err != nil {
		t.Skipf("memcached not reachable at %s: %v", addrs, err)
	}
	return c
}

// TestMemcachedCache_RoundTrip_Integration verifies a bundle survives the JSON round trip through memcached.
func TestMemcachedCache_RoundTrip_Integration(t *testing.T) {
	c := integrationCache(t)
	ctx := context.Background()
	val := sampleContent()

	if err := c.Set(ctx, "dashboard-it", val, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(ctx, "dashboard-it")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v; want hit", ok, err)
	}
	if got.Weather != val.Weather || len(got.MarketPrices) != 1 || got.MarketPrices[0] != val.MarketPrices[0] {
		t.Errorf("Get() = %+v, want %+v", got, val)
	}
}

// TestMemcachedCache_Miss_Integration verifies an absent key is a miss, not an error.
func TestMemcachedCache_Miss_Integration(t *testing.T) {
	c := integrationCache(t)
	_, ok, err := c.Get(context.Background(), "never-set")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestGuardedCache_UnreachableServer_Integration verifies the breaker opens against a dead address.
func TestGuardedCache_UnreachableServer_Integration(t *testing.T) {
	dead, err := NewMemcachedCache("127.0.0.1:1", 100*time.Millisecond, 1)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer dead.Close()
	g := NewGuardedCache(dead, circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, Timeout: time.Minute}))

	ctx := context.Background()
	if _, _, err := g.Get(ctx, "dashboard"); err == nil {
		t.Fatal("Get() against dead server error = nil")
	}
	if _, _, err := g.Get(ctx, "dashboard"); !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("second Get() error = %v, want ErrOpen", err)
	}
}
