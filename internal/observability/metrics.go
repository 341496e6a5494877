package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/crop-advisory-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. SSE streams count for their whole lifetime.
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Live dashboard sessions.
	SessionsActive prometheus.Gauge

	// Sessions closed by reason (deleted, expired, shutdown).
	SessionsClosedTotal *prometheus.CounterVec

	// Session creations refused because the registry is full.
	SessionsRejectedTotal prometheus.Counter

	// Notifications published, by title and phase (immediate or delayed).
	NotificationsEmittedTotal *prometheus.CounterVec

	// Delayed notifications waiting to fire across all sessions.
	ScheduledTasksPending prometheus.Gauge

	// Delayed notifications dropped because their session was torn down first.
	ScheduledTasksCanceledTotal prometheus.Counter

	// Pest images accepted. Content is never inspected.
	PestUploadsTotal prometheus.Counter

	// Declared size of accepted pest images.
	PestUploadBytes prometheus.Histogram

	// Chat submissions by result (accepted, empty).
	ChatSubmissionsTotal *prometheus.CounterVec

	// Language selector changes by target language.
	LanguageSelectionsTotal *prometheus.CounterVec

	// Content bundle assemblies by status. Each one is a cache miss or a warm.
	ContentFetchesTotal *prometheus.CounterVec

	// Time to assemble a content bundle from its sources.
	ContentFetchDurationSeconds prometheus.Histogram

	// Cache hits by cache type.
	CacheHitsTotal *prometheus.CounterVec

	// Cache errors by operation and category.
	CacheErrorsTotal *prometheus.CounterVec

	// Cache operation latency by operation and result.
	CacheOperationDurationSeconds *prometheus.HistogramVec

	// Callers that shared another caller's content assembly.
	RequestCoalescingHitsTotal prometheus.Counter

	// Cache warming runs, failures and duration.
	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram

	// Circuit breaker state per guarded dependency (0 closed, 1 open, 2 half-open).
	CircuitBreakerState *prometheus.GaugeVec

	// Circuit breaker transitions. Watch for: flapping between open and half-open.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboardSessionsActive",
			Help: "Number of live dashboard sessions",
		},
	)
	SessionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboardSessionsClosedTotal",
			Help: "Dashboard sessions closed, by reason",
		},
		[]string{"reason"},
	)
	SessionsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboardSessionsRejectedTotal",
			Help: "Dashboard session creations refused at capacity",
		},
	)
	NotificationsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notificationsEmittedTotal",
			Help: "Notifications published to session feeds, by title and phase",
		},
		[]string{"title", "phase"},
	)
	ScheduledTasksPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduledTasksPending",
			Help: "Delayed notifications waiting to fire",
		},
	)
	ScheduledTasksCanceledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduledTasksCanceledTotal",
			Help: "Delayed notifications canceled by session teardown",
		},
	)
	PestUploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pestUploadsTotal",
			Help: "Pest images accepted for simulated analysis",
		},
	)
	PestUploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pestUploadBytes",
			Help:    "Size of accepted pest images in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
		},
	)
	ChatSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatSubmissionsTotal",
			Help: "Chat submissions by result (accepted, empty)",
		},
		[]string{"result"},
	)
	LanguageSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "languageSelectionsTotal",
			Help: "Language selector changes by language",
		},
		[]string{"language"},
	)
	ContentFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentFetchesTotal",
			Help: "Content bundle assemblies by status",
		},
		[]string{"status"},
	)
	ContentFetchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contentFetchDurationSeconds",
			Help:    "Content bundle assembly latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits. Misses = contentFetchesTotal - cacheWarmingTotal.",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache errors by operation and category",
		},
		[]string{"operation", "category"},
	)
	CacheOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cacheOperationDurationSeconds",
			Help:    "Cache operation latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"operation", "result"},
	)
	RequestCoalescingHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "requestCoalescingHitsTotal",
			Help: "Content requests that shared an in-flight assembly",
		},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Content cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Content cache warming runs that failed",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Content cache warming latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"component"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal,
		SessionsActive, SessionsClosedTotal, SessionsRejectedTotal,
		NotificationsEmittedTotal, ScheduledTasksPending, ScheduledTasksCanceledTotal,
		PestUploadsTotal, PestUploadBytes, ChatSubmissionsTotal, LanguageSelectionsTotal,
		ContentFetchesTotal, ContentFetchDurationSeconds,
		CacheHitsTotal, CacheErrorsTotal, CacheOperationDurationSeconds,
		RequestCoalescingHitsTotal,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
	)
}

// RecordCircuitBreakerTransition updates the state gauge and transition counter for component.
func RecordCircuitBreakerTransition(component, from, to string, state int) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
	CircuitBreakerState.WithLabelValues(component).Set(float64(state))
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with cfg.OverloadWindow. Uses same window as health.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
