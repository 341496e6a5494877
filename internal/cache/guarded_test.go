package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/circuitbreaker"
	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// flakyCache fails every call while down is set and counts backend calls.
type flakyCache struct {
	down  bool
	calls int
	inner *InMemoryCache
}

func (f *flakyCache) Get(ctx context.Context, key string) (models.Content, bool, error) {
	f.calls++
	if f.down {
		return models.Content{}, false, errors.New("memcached get: connection refused")
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyCache) Set(ctx context.Context, key string, value models.Content, ttl time.Duration) error {
	f.calls++
	if f.down {
		return errors.New("memcached set: connection refused")
	}
	return f.inner.Set(ctx, key, value, ttl)
}

// TestGuardedCache_PassThrough verifies hits and misses pass through a closed breaker unchanged.
func TestGuardedCache_PassThrough(t *testing.T) {
	backend := &flakyCache{inner: NewInMemoryCache()}
	g := NewGuardedCache(backend, circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1}))
	ctx := context.Background()

	if _, ok, err := g.Get(ctx, "dashboard"); err != nil || ok {
		t.Fatalf("Get() on empty = ok %v, err %v; want miss", ok, err)
	}
	want := models.Content{QuickTopics: []string{"Irrigation"}}
	if err := g.Set(ctx, "dashboard", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := g.Get(ctx, "dashboard")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v; want hit", ok, err)
	}
	if len(got.QuickTopics) != 1 || got.QuickTopics[0] != "Irrigation" {
		t.Errorf("Get().QuickTopics = %v, want %v", got.QuickTopics, want.QuickTopics)
	}
}

// TestGuardedCache_SkipsBackendWhileOpen verifies backend failures open the breaker and later calls skip the backend.
func TestGuardedCache_SkipsBackendWhileOpen(t *testing.T) {
	backend := &flakyCache{down: true, inner: NewInMemoryCache()}
	g := NewGuardedCache(backend, circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := g.Get(ctx, "dashboard"); err == nil {
			t.Fatalf("Get() #%d error = nil, want backend error", i)
		}
	}
	if backend.calls != 2 {
		t.Fatalf("backend calls = %d, want 2", backend.calls)
	}

	_, _, err := g.Get(ctx, "dashboard")
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("Get() error = %v, want ErrOpen", err)
	}
	if err := g.Set(ctx, "dashboard", models.Content{}, time.Minute); !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("Set() error = %v, want ErrOpen", err)
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d after open, want 2", backend.calls)
	}
}
