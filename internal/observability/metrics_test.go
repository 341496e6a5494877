package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/traffic"
)

// TestMetrics_Usable verifies that every labelled metric accepts the label
// dimensions used by the http, dashboard, session, content and cache packages.
func TestMetrics_Usable(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("POST", "/sessions/{id}/chat", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("POST", "/sessions/{id}/chat").Observe(0.01)
	SessionsClosedTotal.WithLabelValues("expired").Inc()
	NotificationsEmittedTotal.WithLabelValues("Image Uploaded", "immediate").Inc()
	NotificationsEmittedTotal.WithLabelValues("Analysis Complete", "delayed").Inc()
	ChatSubmissionsTotal.WithLabelValues("empty").Inc()
	LanguageSelectionsTotal.WithLabelValues("tamil").Inc()
	ContentFetchesTotal.WithLabelValues("success").Inc()
	CacheHitsTotal.WithLabelValues("content").Inc()
	CacheErrorsTotal.WithLabelValues("get", "timeout").Inc()
	CacheOperationDurationSeconds.WithLabelValues("set", "success").Observe(0.001)
	PestUploadBytes.Observe(2048)
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/health", "2xx").Inc()
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"httpRequestsTotal", "dashboardSessionsActive", "scheduledTasksPending"} {
		if !strings.Contains(body, name) {
			t.Errorf("MetricsHandler response missing %s", name)
		}
	}
}

func TestRegisterRateLimitGauges_Idempotent(t *testing.T) {
	traffic.Reset()
	defer traffic.Reset()
	RegisterRateLimitGauges(time.Minute)
	RegisterRateLimitGauges(time.Minute)
	traffic.RecordDenied()

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "rateLimitRejectsInWindow 1") {
		t.Error("rateLimitRejectsInWindow should report the recorded denial")
	}
}

// TestRecordCircuitBreakerTransition verifies a transition sets the state gauge and counts the edge.
func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("memcached-test", "closed", "open", 1)

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`circuitBreakerState{component="memcached-test"} 1`,
		`circuitBreakerTransitionsTotal{component="memcached-test",from="closed",to="open"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
