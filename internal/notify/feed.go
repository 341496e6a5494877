// Package notify holds the per-session notification feed: an ordered, bounded
// history of toasts that pollers read by sequence and streams subscribe to.
package notify

import (
	"sync"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// DefaultHistory is the number of notifications kept when none is configured.
const DefaultHistory = 50

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind misses events and must catch up with Since.
const subscriberBuffer = 16

// Feed is safe for concurrent use. Publishing never blocks on subscribers.
type Feed struct {
	mu      sync.Mutex
	history []models.Notification
	limit   int
	seq     uint64
	subs    map[int]chan models.Notification
	nextSub int
	closed  bool
	now     func() time.Time
}

// NewFeed returns a Feed keeping at most limit notifications (DefaultHistory if limit <= 0).
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Feed{
		limit: limit,
		subs:  make(map[int]chan models.Notification),
		now:   time.Now,
	}
}

// Publish appends a notification and fans it out to subscribers. After Close
// it returns the zero Notification and false.
func (f *Feed) Publish(title, description string, severity models.Severity) (models.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return models.Notification{}, false
	}
	f.seq++
	n := models.Notification{
		Seq:         f.seq,
		Title:       title,
		Description: description,
		Severity:    severity,
		Timestamp:   f.now().UTC(),
	}
	f.history = append(f.history, n)
	if over := len(f.history) - f.limit; over > 0 {
		f.history = append(f.history[:0], f.history[over:]...)
	}
	for _, ch := range f.subs {
		select {
		case ch <- n:
		default:
		}
	}
	return n, true
}

// Since returns retained notifications with Seq greater than after, oldest first.
func (f *Feed) Since(after uint64) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, 0, len(f.history))
	for _, n := range f.history {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	return out
}

// Latest returns the most recent notification, the one currently visible.
func (f *Feed) Latest() (models.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return models.Notification{}, false
	}
	return f.history[len(f.history)-1], true
}

// Subscribe returns a channel receiving every notification published from now
// on, and a cancel func. The channel is closed by cancel or by Close.
func (f *Feed) Subscribe() (<-chan models.Notification, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan models.Notification, subscriberBuffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

// Close stops publishing and closes every subscriber channel. History stays readable.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
