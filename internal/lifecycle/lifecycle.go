// Package lifecycle holds the process-wide drain flag shared by main and /health.
package lifecycle

import (
	"sync/atomic"
	"time"
)

// drainStart is the unix-nano time draining began, or 0 while serving.
var drainStart atomic.Int64

// SetShuttingDown starts or clears draining. Starting twice keeps the first
// timestamp. While draining, /health reports shutting-down with 503.
func SetShuttingDown(v bool) {
	if !v {
		drainStart.Store(0)
		return
	}
	drainStart.CompareAndSwap(0, time.Now().UnixNano())
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return drainStart.Load() != 0
}

// DrainingSince returns when draining began, or the zero time while serving.
func DrainingSince() time.Time {
	ns := drainStart.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
