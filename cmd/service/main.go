package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/crop-advisory-service/internal/cache"
	"github.com/kjstillabower/crop-advisory-service/internal/circuitbreaker"
	"github.com/kjstillabower/crop-advisory-service/internal/config"
	"github.com/kjstillabower/crop-advisory-service/internal/content"
	"github.com/kjstillabower/crop-advisory-service/internal/dashboard"
	httphandler "github.com/kjstillabower/crop-advisory-service/internal/http"
	"github.com/kjstillabower/crop-advisory-service/internal/lifecycle"
	"github.com/kjstillabower/crop-advisory-service/internal/observability"
	"github.com/kjstillabower/crop-advisory-service/internal/overload"
	"github.com/kjstillabower/crop-advisory-service/internal/session"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
		if cfg.CircuitBreakerEnabled {
			cb := circuitbreaker.New(circuitbreaker.Config{
				FailureThreshold: cfg.CircuitBreakerFailureThreshold,
				SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
				Timeout:          cfg.CircuitBreakerTimeout,
				Component:        "memcached",
				OnStateChange: func(from, to circuitbreaker.State) {
					observability.RecordCircuitBreakerTransition("memcached", from.String(), to.String(), int(to))
					logger.Warn("memcached circuit breaker", zap.Stringer("from", from), zap.Stringer("to", to))
				},
			})
			observability.CircuitBreakerState.WithLabelValues("memcached").Set(0)
			cacheSvc = cache.NewGuardedCache(mc, cb)
			logger.Info("circuit breaker enabled", zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold), zap.Duration("timeout", cfg.CircuitBreakerTimeout))
		}
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}
	contentService := content.NewService(content.StaticSources(), cacheSvc, cfg.CacheTTL, cfg.CacheCoalesce)

	// Background work stops when bgCtx is canceled during shutdown.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	warmer := cache.NewCacheWarmer(contentService, logger)
	warmCtx, warmCancel := context.WithTimeout(bgCtx, 30*time.Second)
	if err := warmer.Warm(warmCtx); err != nil {
		logger.Warn("cache warming failed", zap.Error(err))
	}
	warmCancel()
	if cfg.CacheWarmInterval > 0 {
		go func() {
			if err := warmer.WarmPeriodic(bgCtx, cfg.CacheWarmInterval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("periodic cache warming stopped", zap.Error(err))
			}
		}()
	}

	registry := session.NewRegistry(contentService, session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Dashboard: dashboard.Options{
			Language: cfg.DefaultLanguage,
			Timings: dashboard.Timings{
				AnalysisDelay: cfg.AnalysisDelay,
				AdvisoryDelay: cfg.AdvisoryDelay,
			},
			History: cfg.NotificationHistory,
		},
	}, logger)
	go func() {
		if err := registry.Run(bgCtx, cfg.SessionSweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session sweeper stopped", zap.Error(err))
		}
	}()

	healthConfig := &httphandler.HealthConfig{
		Overload: overload.Policy{
			Window:       cfg.OverloadWindow,
			ThresholdPct: cfg.OverloadThresholdPct,
			RateLimitRPS: cfg.RateLimitRPS,
		},
		RateLimitBurst: cfg.RateLimitBurst,
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(registry, healthConfig, logger, limiter, cfg.UploadMaxBytes)
	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		TestingMode:    cfg.TestingMode,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(handler.StopStreams)

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	bgCancel()
	closed := registry.CloseAll()
	logger.Info("sessions closed", zap.Int("count", closed))

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
