package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/observability"
)

// ContentRefresher is implemented by the content service to rebuild and store
// the content bundle. Used by CacheWarmer to avoid a circular dependency.
type ContentRefresher interface {
	Refresh(ctx context.Context) (models.Content, error)
}

// CacheWarmer keeps the content bundle hot so the first dashboard of a
// process, and every one after a TTL rollover, is served from cache.
type CacheWarmer struct {
	refresher ContentRefresher
	logger    *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer that uses the given refresher and logger.
func NewCacheWarmer(refresher ContentRefresher, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{refresher: refresher, logger: logger}
}

// Warm rebuilds the content bundle once.
func (w *CacheWarmer) Warm(ctx context.Context) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	_, err := w.refresher.Refresh(ctx)
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if err != nil {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %w", err)
	}
	if w.logger != nil {
		w.logger.Debug("content cache warmed", zap.Float64("duration_seconds", duration))
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, interval time.Duration) error {
	if err := w.Warm(ctx); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
