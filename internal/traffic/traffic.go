// Package traffic counts admitted and denied requests on the rate-limited
// session API. It feeds the overload health check and the rate-limit gauges.
package traffic

import (
	"sync"
	"time"
)

// retentionSeconds bounds how far back any window query may look.
const retentionSeconds = 300

var defaultTracker Tracker

// RecordRequest records a request admitted to the rate-limited session API.
func RecordRequest() {
	defaultTracker.RecordRequest()
}

// RecordDenied records a rate-limit denial (429).
func RecordDenied() {
	defaultTracker.RecordDenied()
}

// RequestCount returns the number of outcomes (admitted + denied) within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.DenialCount(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

type bucket struct {
	sec      int64 // unix second; 0 marks an unused slot
	admitted int
	denied   int
}

// Tracker keeps per-second outcome counts in a fixed ring, so memory does not
// grow with request rate. A window reaches back to the start of the second it
// covers, so it may count up to one extra second of history.
type Tracker struct {
	mu      sync.Mutex
	buckets [retentionSeconds]bucket
	now     func() time.Time
}

// RecordRequest records an admitted request.
func (t *Tracker) RecordRequest() {
	t.record(false)
}

// RecordDenied records a rate-limit denial (429).
func (t *Tracker) RecordDenied() {
	t.record(true)
}

// RequestCount returns the total number of outcomes (admitted + denied) within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	return t.count(window, false)
}

// DenialCount returns the number of rate-limit denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	return t.count(window, true)
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = [retentionSeconds]bucket{}
}

func (t *Tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *Tracker) record(denied bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sec := t.clock().Unix()
	b := &t.buckets[sec%retentionSeconds]
	if b.sec != sec {
		*b = bucket{sec: sec}
	}
	if denied {
		b.denied++
	} else {
		b.admitted++
	}
}

func (t *Tracker) count(window time.Duration, deniedOnly bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock().Unix()
	span := int64((window + time.Second - 1) / time.Second)
	if span > retentionSeconds-1 {
		span = retentionSeconds - 1
	}
	oldest := now - span
	n := 0
	for _, b := range t.buckets {
		if b.sec == 0 || b.sec < oldest || b.sec > now {
			continue
		}
		n += b.denied
		if !deniedOnly {
			n += b.admitted
		}
	}
	return n
}
