package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/crop-advisory-service/internal/observability"
	"github.com/kjstillabower/crop-advisory-service/internal/session"
	"github.com/kjstillabower/crop-advisory-service/internal/traffic"
)

func TestMiddleware_ThroughHandler(t *testing.T) {
	_, router := newTestServer(t)

	w := doRequest(router, "POST", "/sessions", nil, nil)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID header missing")
	}
}

func TestMiddleware_CorrelationIDPropagated(t *testing.T) {
	_, router := newTestServer(t)

	w := doRequest(router, "GET", "/sessions/not-a-uuid", nil, map[string]string{"X-Correlation-ID": "client-provided-id"})

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
	var errResp struct {
		Error struct {
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Error.RequestID != "client-provided-id" {
		t.Errorf("requestId = %q, want client-provided-id", errResp.Error.RequestID)
	}
}

func TestMiddleware_LoggerOnContext(t *testing.T) {
	var got *zap.Logger
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/probe", func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Value("logger").(*zap.Logger)
	})

	doRequest(router, "GET", "/probe", nil, nil)
	if got == nil {
		t.Error("request context has no logger")
	}
}

// TestMiddleware_SessionIDOnLogger verifies session routes tag the request logger with the session id.
func TestMiddleware_SessionIDOnLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.HandleFunc("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		loggerFrom(r).Info("probe")
	})

	doRequest(router, "GET", "/sessions/abc", nil, map[string]string{"X-Correlation-ID": "corr-1"})

	entries := logs.FilterMessage("probe").All()
	if len(entries) != 1 {
		t.Fatalf("probe log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["session_id"] != "abc" {
		t.Errorf("session_id = %v, want abc", fields["session_id"])
	}
	if fields["correlation_id"] != "corr-1" {
		t.Errorf("correlation_id = %v, want corr-1", fields["correlation_id"])
	}
}

// TestRecoverMiddleware verifies a panic becomes a logged 500 with the standard error body.
func TestRecoverMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.Use(RecoverMiddleware)
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := doRequest(router, "GET", "/boom", nil, nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if code := decodeError(t, w); code != "INTERNAL_ERROR" {
		t.Errorf("error.code = %q, want INTERNAL_ERROR", code)
	}
	if n := logs.FilterMessage("handler panic").Len(); n != 1 {
		t.Errorf("panic log entries = %d, want 1", n)
	}
}

func TestRecoverMiddleware_ReraisesAbort(t *testing.T) {
	handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if p := recover(); p != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", p)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

// TestMiddleware_MetricsUseRouteTemplate verifies session ids never become label values.
func TestMiddleware_MetricsUseRouteTemplate(t *testing.T) {
	_, router := newTestServer(t)
	id := createSession(t, router)
	doRequest(router, "GET", "/sessions/"+id, nil, nil)

	w := doRequest(router, "GET", "/metrics", nil, nil)
	body := w.Body.String()
	if !strings.Contains(body, `route="/sessions/{id}"`) {
		t.Error(`metrics missing route="/sessions/{id}"`)
	}
	if strings.Contains(body, id) {
		t.Errorf("metrics contain raw session id %s", id)
	}
}

func TestMiddleware_InFlightTracked(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})

	done := make(chan struct{})
	go func() {
		doRequest(router, "GET", "/slow", nil, nil)
		close(done)
	}()
	<-started
	if n := InFlightCount(); n < 1 {
		t.Errorf("InFlightCount() = %d during request, want >= 1", n)
	}
	close(release)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := WaitForInFlight(ctx, 5*time.Millisecond); err != nil {
		t.Errorf("WaitForInFlight() error = %v", err)
	}
}

func TestTimeoutMiddleware_CancelsContextAfterTimeout(t *testing.T) {
	router := mux.NewRouter()
	router.Use(TimeoutMiddleware(20 * time.Millisecond))
	router.HandleFunc("/wait", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.WriteHeader(http.StatusServiceUnavailable)
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	w := doRequest(router, "GET", "/wait", nil, nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d (deadline should cancel the context)", w.Code, http.StatusServiceUnavailable)
	}
}

// TestRateLimitMiddleware_Returns429WhenExceeded verifies denials are answered
// and counted toward the overload window.
func TestRateLimitMiddleware_Returns429WhenExceeded(t *testing.T) {
	traffic.Reset()
	defer traffic.Reset()
	h := NewHandler(newTestRegistry(t, session.Config{}), nil, zap.NewNop(), rate.NewLimiter(1, 2), 0)
	router := NewRouter(h, RouterConfig{}, zap.NewNop())

	for i := 0; i < 3; i++ {
		w := doRequest(router, "POST", "/sessions", nil, nil)
		if i < 2 {
			if w.Code != http.StatusCreated {
				t.Errorf("request %d: status = %d, want 201", i, w.Code)
			}
			continue
		}
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("request %d: status = %d, want 429", i, w.Code)
		}
		if code := decodeError(t, w); code != "RATE_LIMITED" {
			t.Errorf("error.code = %q, want RATE_LIMITED", code)
		}
		if got := w.Header().Get("Retry-After"); got != "1" {
			t.Errorf("Retry-After = %q, want 1", got)
		}
	}
	if n := traffic.DenialCount(time.Minute); n != 1 {
		t.Errorf("DenialCount() = %d, want 1", n)
	}
	if n := traffic.RequestCount(time.Minute); n != 3 {
		t.Errorf("RequestCount() = %d, want 3", n)
	}
	// Health and metrics stay reachable when the session API is limited.
	if w := doRequest(router, "GET", "/health", nil, nil); w.Code == http.StatusTooManyRequests {
		t.Error("/health was rate limited")
	}
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	router := mux.NewRouter()
	router.Use(RateLimitMiddleware(nil))
	router.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		if w := doRequest(router, "GET", "/ok", nil, nil); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (nil limiter should allow)", w.Code)
		}
	}
}

func TestMiddleware_MetricsRoute(t *testing.T) {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.Use(MetricsMiddleware)
	router.Handle("/metrics", observability.MetricsHandler())

	w := doRequest(router, "GET", "/metrics", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		limit rate.Limit
		want  string
	}{
		{100, "1"},
		{1, "1"},
		{0.5, "2"},
		{0.1, "10"},
	}
	for _, tt := range tests {
		if got := retryAfter(rate.NewLimiter(tt.limit, 1)); got != tt.want {
			t.Errorf("retryAfter(%v) = %q, want %q", tt.limit, got, tt.want)
		}
	}
}

func TestStatusCodeString(t *testing.T) {
	tests := map[int]string{200: "2xx", 204: "2xx", 303: "3xx", 404: "4xx", 503: "5xx"}
	for code, want := range tests {
		if got := statusCodeString(code); got != want {
			t.Errorf("statusCodeString(%d) = %q, want %q", code, got, want)
		}
	}
}
