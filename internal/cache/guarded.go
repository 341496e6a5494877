package cache

import (
	"context"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/circuitbreaker"
	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// GuardedCache routes a remote Cache through a circuit breaker so an
// unreachable backend is skipped instead of costing its timeout on every
// dashboard load. Misses are successes; only backend errors trip the breaker.
type GuardedCache struct {
	inner   Cache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedCache wraps inner with breaker.
func NewGuardedCache(inner Cache, breaker *circuitbreaker.CircuitBreaker) *GuardedCache {
	return &GuardedCache{inner: inner, breaker: breaker}
}

// Get implements Cache.Get. While the breaker is open it returns an error
// wrapping circuitbreaker.ErrOpen without touching the backend.
func (g *GuardedCache) Get(ctx context.Context, key string) (models.Content, bool, error) {
	var (
		bundle models.Content
		found  bool
	)
	err := g.breaker.Call(ctx, func() error {
		var err error
		bundle, found, err = g.inner.Get(ctx, key)
		return err
	})
	if err != nil {
		return models.Content{}, false, err
	}
	return bundle, found, nil
}

// Set implements Cache.Set.
func (g *GuardedCache) Set(ctx context.Context, key string, value models.Content, ttl time.Duration) error {
	return g.breaker.Call(ctx, func() error {
		return g.inner.Set(ctx, key, value, ttl)
	})
}
