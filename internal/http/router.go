package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/observability"
)

// RouterConfig selects the optional parts of the route table.
type RouterConfig struct {
	RequestTimeout time.Duration
	TestingMode    bool
}

// NewRouter wires the dashboard routes. Session routes are rate limited; all
// but the notification stream also get the request timeout.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(RecoverMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")

	timeout := func(fn http.HandlerFunc) http.Handler { return fn }
	if cfg.RequestTimeout > 0 {
		mw := TimeoutMiddleware(cfg.RequestTimeout)
		timeout = func(fn http.HandlerFunc) http.Handler { return mw(fn) }
	}

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test endpoint exposed")
		router.HandleFunc("/test", h.GetTestStatus).Methods("GET")
		router.HandleFunc("/test/{action}", h.PostTestAction).Methods("POST")
	}

	limited := router.NewRoute().Subrouter()
	limited.Use(RateLimitMiddleware(h.rateLimiter))
	limited.Handle("/", timeout(h.Index)).Methods("GET")
	limited.Handle("/sessions", timeout(h.CreateSession)).Methods("POST")
	limited.Handle("/sessions/{id}", timeout(h.GetSession)).Methods("GET")
	limited.Handle("/sessions/{id}", timeout(h.DeleteSession)).Methods("DELETE")
	limited.Handle("/sessions/{id}/page", timeout(h.GetPage)).Methods("GET")
	limited.Handle("/sessions/{id}/tabs/{tab}", timeout(h.GetTab)).Methods("GET")
	limited.Handle("/sessions/{id}/language", timeout(h.SelectLanguage)).Methods("PUT", "POST")
	limited.Handle("/sessions/{id}/alerts", timeout(h.PressAlerts)).Methods("POST")
	limited.Handle("/sessions/{id}/pest-image", timeout(h.UploadPestImage)).Methods("POST")
	limited.Handle("/sessions/{id}/chat/draft", timeout(h.SetDraft)).Methods("PUT")
	limited.Handle("/sessions/{id}/chat", timeout(h.SubmitChat)).Methods("POST")
	limited.Handle("/sessions/{id}/notifications", timeout(h.ListNotifications)).Methods("GET")
	limited.HandleFunc("/sessions/{id}/notifications/stream", h.StreamNotifications).Methods("GET")
	return router
}
