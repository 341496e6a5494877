// Package scheduler runs one-shot delayed callbacks that can be canceled
// individually or all at once when their owner is torn down.
package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/observability"
)

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("scheduler closed")

// Scheduler owns a set of pending one-shot tasks. Each task fires at most once;
// there is no retry and no ordering guarantee between tasks beyond their timers.
type Scheduler struct {
	mu      sync.Mutex
	pending map[uint64]*Task
	nextID  uint64
	closed  bool
	running sync.WaitGroup
}

// Task is a handle to a scheduled callback.
type Task struct {
	id    uint64
	s     *Scheduler
	timer *time.Timer
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{pending: make(map[uint64]*Task)}
}

// Schedule runs fn once after delay on its own goroutine.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.nextID++
	t := &Task{id: s.nextID, s: s}
	s.pending[t.id] = t
	observability.ScheduledTasksPending.Inc()
	t.timer = time.AfterFunc(delay, func() {
		if !s.claim(t.id) {
			return
		}
		defer s.running.Done()
		fn()
	})
	return t, nil
}

// claim removes a due task from the pending set. It reports false when the
// task was canceled first, in which case the callback must not run.
func (s *Scheduler) claim(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	s.running.Add(1)
	observability.ScheduledTasksPending.Dec()
	return true
}

// Cancel stops the task if it has not fired yet and reports whether it did.
func (t *Task) Cancel() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[t.id]; !ok {
		return false
	}
	delete(s.pending, t.id)
	t.timer.Stop()
	observability.ScheduledTasksPending.Dec()
	observability.ScheduledTasksCanceledTotal.Inc()
	return true
}

// Pending returns the number of tasks that have not fired or been canceled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending task, waits for callbacks already running and
// returns how many tasks were canceled. Later calls return 0.
// Must not be called from inside a scheduled callback.
func (s *Scheduler) Close() int {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.closed = true
	n := len(s.pending)
	for id, t := range s.pending {
		t.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	observability.ScheduledTasksPending.Sub(float64(n))
	observability.ScheduledTasksCanceledTotal.Add(float64(n))
	s.running.Wait()
	return n
}
