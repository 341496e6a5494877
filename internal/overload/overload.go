// Package overload decides whether the session API is receiving more traffic
// than the rate limiter was sized for.
package overload

import (
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/traffic"
)

// Policy is the overload threshold: the service is overloaded when outcomes in
// Window exceed ThresholdPct percent of what RateLimitRPS admits over Window.
type Policy struct {
	Window       time.Duration
	ThresholdPct int
	RateLimitRPS int
}

// Threshold returns the outcome count above which the service is overloaded.
// Zero means the policy is disabled.
func (p Policy) Threshold() int {
	if p.Window <= 0 || p.ThresholdPct <= 0 || p.RateLimitRPS <= 0 {
		return 0
	}
	return int(float64(p.RateLimitRPS) * p.Window.Seconds() * float64(p.ThresholdPct) / 100)
}

// Exceeded reports whether recorded traffic is above the threshold.
func (p Policy) Exceeded() bool {
	threshold := p.Threshold()
	if threshold == 0 {
		return false
	}
	return traffic.RequestCount(p.Window) > threshold
}

// RecordDenial records a rate-limit denial (429). Call from middleware when returning 429.
func RecordDenial() {
	traffic.RecordDenied()
}

// RecordAdmitted records a request the rate limiter let through.
func RecordAdmitted() {
	traffic.RecordRequest()
}
