package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// keyPrefix namespaces content keys; bump the version when models.Content
// changes shape so old bundles are ignored rather than half-decoded.
const keyPrefix = "crop-advisory:v1:"

// maxRelativeExp is the largest expiration memcached treats as relative seconds.
const maxRelativeExp = 30 * 24 * 60 * 60

// MemcachedCache implements Cache using memcached, storing bundles as JSON.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func storageKey(k string) string {
	return keyPrefix + k
}

// expirationSeconds converts ttl to a memcached relative expiration, falling
// back to one hour when ttl is non-positive or beyond the relative range.
func expirationSeconds(ttl time.Duration) int32 {
	sec := int64(ttl / time.Second)
	if sec <= 0 || sec > maxRelativeExp {
		return 3600
	}
	return int32(sec)
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, key string) (models.Content, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Content{}, false, err
	}
	item, err := c.client.Get(storageKey(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return models.Content{}, false, nil
		}
		return models.Content{}, false, fmt.Errorf("memcached get %s: %w", key, err)
	}
	var bundle models.Content
	if err := json.Unmarshal(item.Value, &bundle); err != nil {
		return models.Content{}, false, fmt.Errorf("memcached decode %s: %w", key, err)
	}
	return bundle, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key string, value models.Content, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memcached encode %s: %w", key, err)
	}
	if err := c.client.Set(&memcache.Item{
		Key:        storageKey(key),
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	}); err != nil {
		return fmt.Errorf("memcached set %s: %w", key, err)
	}
	return nil
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
