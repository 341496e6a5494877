package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/crop-advisory-service/internal/cache"
	"github.com/kjstillabower/crop-advisory-service/internal/circuitbreaker"
	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/observability"
)

// bundleKey is the cache key of the assembled content bundle.
const bundleKey = "dashboard"

// loadTimeout bounds a coalesced assembly, which no single request owns.
const loadTimeout = 10 * time.Second

// Service assembles dashboard content from its Sources using the cache-aside
// pattern. Concurrent misses share one assembly when coalescing is enabled.
type Service struct {
	sources  Sources
	cache    cache.Cache
	ttl      time.Duration
	coalesce bool
	group    singleflight.Group
}

// NewService creates a content Service. ttl is the cache lifetime of an
// assembled bundle.
func NewService(sources Sources, c cache.Cache, ttl time.Duration, coalesce bool) *Service {
	return &Service{
		sources:  sources,
		cache:    c,
		ttl:      ttl,
		coalesce: coalesce,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Content returns the dashboard content bundle, from cache when present.
// Cache failures are recorded and bypassed; only a source failure is returned.
func (s *Service) Content(ctx context.Context) (models.Content, error) {
	logger := loggerFromContext(ctx)

	getStart := time.Now()
	cached, ok, err := s.cache.Get(ctx, bundleKey)
	getDuration := time.Since(getStart).Seconds()
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "error").Observe(getDuration)
	} else if ok {
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "success").Observe(getDuration)
		observability.CacheHitsTotal.WithLabelValues("content").Inc()
		if logger != nil {
			logger.Debug("content cache hit")
		}
		return cached, nil
	}

	if logger != nil {
		logger.Debug("content cache miss, assembling from sources")
	}
	if !s.coalesce {
		return s.load(ctx)
	}
	// The shared assembly outlives any one caller: it runs detached from
	// cancellation and bounded by loadTimeout, while each caller still
	// returns as soon as its own context is done.
	ch := s.group.DoChan(bundleKey, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.load(lctx)
	})
	select {
	case <-ctx.Done():
		return models.Content{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			observability.RequestCoalescingHitsTotal.Inc()
		}
		if res.Err != nil {
			return models.Content{}, res.Err
		}
		return res.Val.(models.Content), nil
	}
}

// Refresh assembles a fresh bundle and overwrites the cached copy. Used by the
// cache warmer.
func (s *Service) Refresh(ctx context.Context) (models.Content, error) {
	return s.load(ctx)
}

// load assembles a bundle from the sources and stores it in the cache.
func (s *Service) load(ctx context.Context) (models.Content, error) {
	start := time.Now()
	bundle, err := s.assemble(ctx)
	observability.ContentFetchDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ContentFetchesTotal.WithLabelValues("error").Inc()
		return models.Content{}, fmt.Errorf("assemble content: %w", err)
	}
	observability.ContentFetchesTotal.WithLabelValues("success").Inc()

	setStart := time.Now()
	if setErr := s.cache.Set(ctx, bundleKey, bundle, s.ttl); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "error").Observe(time.Since(setStart).Seconds())
		if logger := loggerFromContext(ctx); logger != nil {
			logger.Warn("content cache set failed", zap.Error(setErr))
		}
	} else {
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "success").Observe(time.Since(setStart).Seconds())
	}
	return bundle, nil
}

// assemble queries every section provider concurrently.
func (s *Service) assemble(ctx context.Context) (models.Content, error) {
	var (
		weather   WeatherSection
		market    []models.MarketPriceEntry
		advisory  AdvisorySection
		assistant AssistantSection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		weather, err = s.sources.Weather.Weather(gctx)
		if err != nil {
			return fmt.Errorf("weather: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		market, err = s.sources.Market.MarketPrices(gctx)
		if err != nil {
			return fmt.Errorf("market prices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		advisory, err = s.sources.Advisory.Advisory(gctx)
		if err != nil {
			return fmt.Errorf("advisory: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assistant, err = s.sources.Assistant.Assistant(gctx)
		if err != nil {
			return fmt.Errorf("assistant: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Content{}, err
	}
	return models.Content{
		Weather:         weather.Current,
		Forecast:        weather.Forecast,
		Alerts:          weather.Alerts,
		MarketPrices:    market,
		Recommendations: advisory.Recommendations,
		Fertilizer:      advisory.Fertilizer,
		Transcript:      assistant.Transcript,
		QuickTopics:     assistant.QuickTopics,
		Languages:       append([]models.Language(nil), Languages...),
	}, nil
}

// categorizeCacheError returns a stable label for cache error metrics
// (breaker_open, timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return "breaker_open"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}
