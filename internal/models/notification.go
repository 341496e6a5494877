package models

import "time"

// Severity mirrors the toast variants of the dashboard.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification is a transient toast. Seq is assigned by the session feed and
// increases monotonically; the highest Seq is the one currently visible.
type Notification struct {
	Seq         uint64    `json:"seq"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
}
