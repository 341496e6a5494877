package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// Cache stores assembled dashboard bundles. A miss is (zero, false, nil);
// an error means the backend itself failed.
type Cache interface {
	Get(ctx context.Context, key string) (models.Content, bool, error)
	Set(ctx context.Context, key string, value models.Content, ttl time.Duration) error
}

// InMemoryCache is the single-process backend. Stale bundles are dropped
// lazily when read.
type InMemoryCache struct {
	mu      sync.Mutex
	bundles map[string]storedBundle
	now     func() time.Time
}

type storedBundle struct {
	content models.Content
	staleAt time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{bundles: make(map[string]storedBundle), now: time.Now}
}

// Get implements Cache.Get. A canceled ctx is reported like the memcached
// backend reports it, so callers see the same behavior from both.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.Content, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Content{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bundles[key]
	if !ok {
		return models.Content{}, false, nil
	}
	if !c.now().Before(b.staleAt) {
		delete(c.bundles, key)
		return models.Content{}, false, nil
	}
	return b.content, true, nil
}

// Set implements Cache.Set.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.Content, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundles[key] = storedBundle{content: value, staleAt: c.now().Add(ttl)}
	return nil
}
