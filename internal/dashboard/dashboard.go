// Package dashboard implements the crop advisory dashboard: its local state,
// the two simulated AI actions and the rendered view.
package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/notify"
	"github.com/kjstillabower/crop-advisory-service/internal/observability"
	"github.com/kjstillabower/crop-advisory-service/internal/scheduler"
	"github.com/kjstillabower/crop-advisory-service/internal/validation"
)

// ErrClosed is returned by operations on a dashboard that has been torn down.
var ErrClosed = errors.New("dashboard closed")

// DefaultLanguage is the selector value of a new dashboard.
const DefaultLanguage = "english"

// Timings paces the simulated analysis and advisory replies.
type Timings struct {
	AnalysisDelay time.Duration
	AdvisoryDelay time.Duration
}

// DefaultTimings returns the stock notification pacing.
func DefaultTimings() Timings {
	return Timings{
		AnalysisDelay: 2 * time.Second,
		AdvisoryDelay: 1500 * time.Millisecond,
	}
}

// Options configures a new Dashboard. Zero values fall back to defaults.
type Options struct {
	Language string
	Timings  Timings
	History  int
	Logger   *zap.Logger
}

// Dashboard is one rendering session. State is component-local: the selected
// language, the uploaded image and the chat draft. Delayed notifications are
// owned by the dashboard and canceled by Close.
type Dashboard struct {
	id      string
	content models.Content
	timings Timings
	feed    *notify.Feed
	sched   *scheduler.Scheduler
	logger  *zap.Logger

	mu        sync.Mutex
	language  string
	pestImage *models.UploadedImage
	draft     string
	closed    bool
}

// New creates a dashboard over a content bundle.
func New(id string, content models.Content, opts Options) *Dashboard {
	timings := opts.Timings
	def := DefaultTimings()
	if timings.AnalysisDelay <= 0 {
		timings.AnalysisDelay = def.AnalysisDelay
	}
	if timings.AdvisoryDelay <= 0 {
		timings.AdvisoryDelay = def.AdvisoryDelay
	}
	language := DefaultLanguage
	if code, err := validation.ValidateLanguage(opts.Language, content.Languages); err == nil {
		language = code
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		id:       id,
		content:  content,
		timings:  timings,
		feed:     notify.NewFeed(opts.History),
		sched:    scheduler.New(),
		logger:   logger.With(zap.String("session_id", id)),
		language: language,
	}
}

// ID returns the session id.
func (d *Dashboard) ID() string { return d.id }

// Feed returns the dashboard's notification feed.
func (d *Dashboard) Feed() *notify.Feed { return d.feed }

// Language returns the selector value.
func (d *Dashboard) Language() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.language
}

// Draft returns the current chat draft.
func (d *Dashboard) Draft() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// PestImage returns a copy of the uploaded image reference, or nil.
func (d *Dashboard) PestImage() *models.UploadedImage {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pestImage == nil {
		return nil
	}
	img := *d.pestImage
	return &img
}

// PendingNotifications returns the number of delayed notifications not yet fired.
func (d *Dashboard) PendingNotifications() int {
	return d.sched.Pending()
}

// SelectLanguage changes the selector value. Nothing else is translated.
func (d *Dashboard) SelectLanguage(code string) error {
	lang, err := validation.ValidateLanguage(code, d.content.Languages)
	if err != nil {
		return fmt.Errorf("select language: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.language = lang
	observability.LanguageSelectionsTotal.WithLabelValues(lang).Inc()
	d.logger.Debug("language selected", zap.String("language", lang))
	return nil
}

// PressAlerts handles the header alerts button, which has no behavior.
func (d *Dashboard) PressAlerts() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.logger.Debug("alerts pressed")
	return nil
}

// UploadPestImage records the chosen file and runs the simulated analysis:
// one notification now and one after the analysis delay, whatever the file
// holds. A nil image is a no-op.
func (d *Dashboard) UploadPestImage(img *models.UploadedImage) error {
	if img == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	stored := *img
	d.pestImage = &stored
	observability.PestUploadsTotal.Inc()
	observability.PestUploadBytes.Observe(float64(stored.Size))
	d.logger.Info("pest image received",
		zap.String("filename", stored.Filename),
		zap.String("content_type", stored.ContentType),
		zap.Int64("size", stored.Size))

	d.emit(imageReceived, phaseImmediate)
	return d.scheduleLocked(d.timings.AnalysisDelay, analysisComplete)
}

// SetDraft replaces the chat draft.
func (d *Dashboard) SetDraft(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.draft = text
	return nil
}

// SubmitChatMessage sends text to the simulated assistant. Text that is empty
// after trimming is ignored and leaves the draft untouched; it reports false.
// Otherwise the draft is cleared, one notification is emitted now and a
// canned advisory follows after the advisory delay. The transcript never changes.
func (d *Dashboard) SubmitChatMessage(text string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		observability.ChatSubmissionsTotal.WithLabelValues("empty").Inc()
		return false, nil
	}
	observability.ChatSubmissionsTotal.WithLabelValues("accepted").Inc()
	d.logger.Debug("chat message submitted", zap.Int("length", len(text)))

	d.emit(advisorySent, phaseImmediate)
	d.draft = ""
	if err := d.scheduleLocked(d.timings.AdvisoryDelay, smartAdvisory); err != nil {
		return true, err
	}
	return true, nil
}

// Close tears the dashboard down: pending delayed notifications are canceled
// and the feed is closed. Returns the number of canceled notifications.
func (d *Dashboard) Close() int {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0
	}
	d.closed = true
	d.mu.Unlock()

	canceled := d.sched.Close()
	d.feed.Close()
	if canceled > 0 {
		d.logger.Debug("pending notifications canceled", zap.Int("count", canceled))
	}
	return canceled
}

func (d *Dashboard) scheduleLocked(delay time.Duration, n scripted) error {
	if _, err := d.sched.Schedule(delay, func() { d.emit(n, phaseDelayed) }); err != nil {
		return fmt.Errorf("schedule %q: %w", n.title, err)
	}
	return nil
}

// emit publishes a scripted notification. It only touches the feed, so it is
// safe from timer goroutines without holding d.mu.
func (d *Dashboard) emit(n scripted, phase string) {
	published, ok := d.feed.Publish(n.title, n.description, n.severity)
	if !ok {
		return
	}
	observability.NotificationsEmittedTotal.WithLabelValues(n.title, phase).Inc()
	d.logger.Debug("notification emitted",
		zap.Uint64("seq", published.Seq),
		zap.String("title", n.title),
		zap.String("phase", phase))
}
