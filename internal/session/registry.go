// Package session keeps the live dashboards of this process, keyed by id, and
// tears down the ones nobody has touched within the idle TTL.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/dashboard"
	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/observability"
)

var (
	// ErrNotFound is returned for an unknown or already closed session id.
	ErrNotFound = errors.New("session not found")
	// ErrCapacity is returned when the registry already holds the maximum number of sessions.
	ErrCapacity = errors.New("session capacity reached")
)

// Close reasons, used as a metric label.
const (
	ReasonDeleted  = "deleted"
	ReasonExpired  = "expired"
	ReasonShutdown = "shutdown"
)

// ContentSource supplies the content bundle a new dashboard renders.
type ContentSource interface {
	Content(ctx context.Context) (models.Content, error)
}

// Config holds registry limits and the options given to every new dashboard.
type Config struct {
	TTL         time.Duration
	MaxSessions int // 0 = unlimited
	Dashboard   dashboard.Options
}

type entry struct {
	dash       *dashboard.Dashboard
	lastAccess time.Time
}

// Registry is safe for concurrent use.
type Registry struct {
	content ContentSource
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry(content ContentSource, cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Dashboard.Logger == nil {
		cfg.Dashboard.Logger = logger
	}
	return &Registry{
		content:  content,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		sessions: make(map[string]*entry),
	}
}

// Create builds a new dashboard over the current content bundle.
func (r *Registry) Create(ctx context.Context) (*dashboard.Dashboard, error) {
	r.mu.Lock()
	full := r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions
	r.mu.Unlock()
	if full {
		observability.SessionsRejectedTotal.Inc()
		return nil, ErrCapacity
	}

	bundle, err := r.content.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	id := r.newID()
	d := dashboard.New(id, bundle, r.cfg.Dashboard)

	r.mu.Lock()
	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		r.mu.Unlock()
		d.Close()
		observability.SessionsRejectedTotal.Inc()
		return nil, ErrCapacity
	}
	r.sessions[id] = &entry{dash: d, lastAccess: r.now()}
	active := len(r.sessions)
	r.mu.Unlock()

	observability.SessionsActive.Set(float64(active))
	r.logger.Info("session created", zap.String("session_id", id), zap.Int("active", active))
	return d, nil
}

// Get returns the dashboard for id and refreshes its idle timer.
func (r *Registry) Get(id string) (*dashboard.Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastAccess = r.now()
	return e.dash, nil
}

// Delete closes and forgets the dashboard for id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	active := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	r.closeEntry(id, e, ReasonDeleted)
	observability.SessionsActive.Set(float64(active))
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL as of now and returns how
// many it closed. A non-positive TTL disables expiry.
func (r *Registry) Sweep(now time.Time) int {
	if r.cfg.TTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.cfg.TTL)
	expired := make(map[string]*entry)
	r.mu.Lock()
	for id, e := range r.sessions {
		if e.lastAccess.Before(cutoff) {
			expired[id] = e
			delete(r.sessions, id)
		}
	}
	active := len(r.sessions)
	r.mu.Unlock()

	for id, e := range expired {
		r.closeEntry(id, e, ReasonExpired)
	}
	observability.SessionsActive.Set(float64(active))
	return len(expired)
}

// Run sweeps at the given interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logger.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// CloseAll tears down every session. Call during shutdown.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for id, e := range all {
		r.closeEntry(id, e, ReasonShutdown)
	}
	observability.SessionsActive.Set(0)
	return len(all)
}

func (r *Registry) closeEntry(id string, e *entry, reason string) {
	canceled := e.dash.Close()
	observability.SessionsClosedTotal.WithLabelValues(reason).Inc()
	r.logger.Debug("session closed",
		zap.String("session_id", id),
		zap.String("reason", reason),
		zap.Int("canceled_notifications", canceled))
}
