package overload

import (
	"testing"
	"time"

	"github.com/kjstillabower/crop-advisory-service/internal/traffic"
)

func TestPolicy_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   int
	}{
		{"80 percent of 10rps over 10s", Policy{Window: 10 * time.Second, ThresholdPct: 80, RateLimitRPS: 10}, 80},
		{"no window", Policy{ThresholdPct: 80, RateLimitRPS: 10}, 0},
		{"no rate limit", Policy{Window: time.Minute, ThresholdPct: 80}, 0},
		{"no percentage", Policy{Window: time.Minute, RateLimitRPS: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Threshold(); got != tt.want {
				t.Errorf("Threshold() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestPolicy_Exceeded verifies admitted and denied outcomes both count toward the threshold.
func TestPolicy_Exceeded(t *testing.T) {
	traffic.Reset()
	defer traffic.Reset()

	p := Policy{Window: time.Second, ThresholdPct: 50, RateLimitRPS: 4} // threshold 2
	RecordAdmitted()
	RecordDenial()
	if p.Exceeded() {
		t.Error("Exceeded() = true at threshold, want false")
	}
	RecordDenial()
	if !p.Exceeded() {
		t.Error("Exceeded() = false above threshold, want true")
	}
	if n := traffic.DenialCount(time.Second); n != 2 {
		t.Errorf("DenialCount() = %d, want 2", n)
	}
}

// TestPolicy_DisabledNeverExceeded verifies a zero policy ignores traffic.
func TestPolicy_DisabledNeverExceeded(t *testing.T) {
	traffic.Reset()
	defer traffic.Reset()

	for i := 0; i < 100; i++ {
		RecordDenial()
	}
	if (Policy{}).Exceeded() {
		t.Error("Exceeded() = true for disabled policy, want false")
	}
}
