package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/crop-advisory-service/internal/dashboard"
	"github.com/kjstillabower/crop-advisory-service/internal/lifecycle"
	"github.com/kjstillabower/crop-advisory-service/internal/observability"
	"github.com/kjstillabower/crop-advisory-service/internal/overload"
	"github.com/kjstillabower/crop-advisory-service/internal/session"
	"github.com/kjstillabower/crop-advisory-service/internal/traffic"
	"github.com/kjstillabower/crop-advisory-service/internal/validation"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	Overload       overload.Policy
	RateLimitBurst int // 0 when rate limiter disabled
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sessions         *session.Registry
	healthConfig     *HealthConfig
	logger           *zap.Logger
	rateLimiter      *rate.Limiter
	maxUploadBytes   int64
	healthStatusMu   sync.Mutex
	healthStatusPrev string

	// streams is canceled by StopStreams to end open notification streams.
	streams     context.Context
	stopStreams context.CancelFunc
}

// NewHandler returns a new Handler. maxUploadBytes bounds pest image request bodies.
func NewHandler(
	sessions *session.Registry,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	rateLimiter *rate.Limiter,
	maxUploadBytes int64,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	streams, stop := context.WithCancel(context.Background())
	return &Handler{
		sessions:       sessions,
		healthConfig:   healthConfig,
		logger:         logger,
		rateLimiter:    rateLimiter,
		maxUploadBytes: maxUploadBytes,
		streams:        streams,
		stopStreams:    stop,
	}
}

// StopStreams ends every open notification stream. Register with
// http.Server.RegisterOnShutdown so Shutdown is not held open by them.
func (h *Handler) StopStreams() {
	h.stopStreams()
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"sessions": "healthy"}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":         result.status,
		"service":        observability.ServiceName,
		"version":        "dev",
		"checks":         checks,
		"activeSessions": h.sessions.Len(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
	if since := lifecycle.DrainingSince(); !since.IsZero() {
		resp["drainingSince"] = since.UTC().Format(time.RFC3339)
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil && h.healthConfig.Overload.Exceeded() {
		return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeSessionError maps session and dashboard errors to the error response.
// Unrecognized errors mean content could not be assembled and are logged at DEBUG.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, validation.ErrSessionIDInvalid):
		writeError(w, r, http.StatusBadRequest, "INVALID_SESSION_ID", "session id must be a UUID")
	case errors.Is(err, session.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found or expired")
	case errors.Is(err, dashboard.ErrClosed):
		writeError(w, r, http.StatusGone, "SESSION_CLOSED", "session has been closed")
	case errors.Is(err, validation.ErrLanguageEmpty), errors.Is(err, validation.ErrLanguageUnsupported):
		writeError(w, r, http.StatusBadRequest, "UNSUPPORTED_LANGUAGE", err.Error())
	case errors.Is(err, validation.ErrTabUnknown):
		writeError(w, r, http.StatusNotFound, "UNKNOWN_TAB", err.Error())
	case errors.Is(err, session.ErrCapacity):
		writeError(w, r, http.StatusServiceUnavailable, "CAPACITY_EXCEEDED", "too many open dashboards")
	default:
		writeError(w, r, http.StatusServiceUnavailable, "CONTENT_UNAVAILABLE", "Unable to load dashboard content")
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Debug("content error", zap.Error(err))
		}
	}
}

// GetTestStatus handles GET /test. Returns the traffic counters behind /health.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	window := 60 * time.Second
	cfg := make(map[string]interface{})
	if h.healthConfig != nil {
		if h.healthConfig.Overload.Window > 0 {
			window = h.healthConfig.Overload.Window
		}
		cfg["rate_limit_rps"] = h.healthConfig.Overload.RateLimitRPS
		cfg["rate_limit_burst"] = h.healthConfig.RateLimitBurst
		cfg["overload_threshold"] = h.healthConfig.Overload.Threshold()
		cfg["overload_window_seconds"] = window.Seconds()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_requests_in_window":  traffic.RequestCount(window),
		"denied_requests_in_window": traffic.DenialCount(window),
		"active_sessions":           h.sessions.Len(),
		"window_length":             window.String(),
		"config":                    cfg,
	})
}

// PostTestAction handles POST /test/{action} for load, reset and shutdown.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	switch action {
	case "load":
		h.postTestLoad(w, r)
	case "reset":
		h.postTestReset(w, r)
	case "shutdown":
		h.postTestShutdown(w, r)
	default:
		writeError(w, r, http.StatusNotFound, "UNKNOWN_ACTION", "unknown test action: "+action)
	}
}

// postTestLoad simulates load by recording the specified number of requests,
// respecting rate limits if configured. Returns accepted/denied counts and current health state.
func (h *Handler) postTestLoad(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		body.Count = 10
	}
	var accepted, denied int
	for i := 0; i < body.Count; i++ {
		if h.rateLimiter == nil || h.rateLimiter.Allow() {
			overload.RecordAdmitted()
			accepted++
		} else {
			overload.RecordDenial()
			observability.RateLimitDeniedTotal.Inc()
			denied++
		}
	}
	msg := "Recorded " + strconv.Itoa(accepted) + " accepted"
	if denied > 0 {
		msg += ", " + strconv.Itoa(denied) + " denied"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"action":   "load",
		"message":  msg,
		"state":    h.computeHealthStatus().status,
		"accepted": accepted,
		"denied":   denied,
	})
}

// postTestReset clears recorded traffic and the shutdown flag.
func (h *Handler) postTestReset(w http.ResponseWriter, r *http.Request) {
	traffic.Reset()
	lifecycle.SetShuttingDown(false)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "reset",
		"message": "All simulated state cleared",
	})
}

// postTestShutdown sets the shutdown flag so /health reports shutting-down.
func (h *Handler) postTestShutdown(w http.ResponseWriter, r *http.Request) {
	lifecycle.SetShuttingDown(true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "shutdown",
		"message": "Shutting-down flag set",
	})
}
