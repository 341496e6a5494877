package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// keepAliveInterval spaces SSE comment lines on an idle stream.
const keepAliveInterval = 15 * time.Second

// StreamNotifications handles GET /sessions/{id}/notifications/stream as
// server-sent events. Retained notifications after Last-Event-ID (or ?after=)
// are replayed first. The stream ends when the client goes away, the session
// is closed or StopStreams is called.
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	lastID := r.Header.Get("Last-Event-ID")
	if lastID == "" {
		lastID = r.URL.Query().Get("after")
	}
	after, err := parseAfter(lastID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "event id must be a non-negative integer")
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	// Subscribe before replaying so nothing published in between is lost.
	events, cancel := d.Feed().Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := loggerFrom(r).With(zap.String("session_id", d.ID()))
	logger.Debug("notification stream opened", zap.Uint64("after", after))

	for _, n := range d.Feed().Since(after) {
		if err := writeEvent(w, n); err != nil {
			return
		}
		after = n.Seq
	}
	if err := rc.Flush(); err != nil {
		logger.Debug("stream flush unsupported", zap.Error(err))
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			logger.Debug("notification stream closed by client")
			return
		case <-h.streams.Done():
			logger.Debug("notification stream stopped for shutdown")
			return
		case n, open := <-events:
			if !open {
				logger.Debug("notification stream ended with session")
				return
			}
			if n.Seq <= after {
				continue
			}
			if err := writeEvent(w, n); err != nil {
				return
			}
			after = n.Seq
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: notification\ndata: %s\n\n", n.Seq, data)
	return err
}
