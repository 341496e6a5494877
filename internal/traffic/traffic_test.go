package traffic

import (
	"testing"
	"time"
)

// manualTracker returns a Tracker whose clock only moves when the test advances it.
func manualTracker() (*Tracker, *time.Time) {
	cur := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := &Tracker{}
	tr.now = func() time.Time { return cur }
	return tr, &cur
}

func TestTracker_Empty(t *testing.T) {
	var tr Tracker
	if n := tr.RequestCount(time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
	if n := tr.DenialCount(time.Minute); n != 0 {
		t.Errorf("DenialCount() = %d, want 0", n)
	}
}

func TestTracker_CountsAdmittedAndDenied(t *testing.T) {
	var tr Tracker
	tr.RecordRequest()
	tr.RecordRequest()
	tr.RecordDenied()

	if n := tr.RequestCount(time.Minute); n != 3 {
		t.Errorf("RequestCount() = %d, want 3", n)
	}
	if n := tr.DenialCount(time.Minute); n != 1 {
		t.Errorf("DenialCount() = %d, want 1", n)
	}
}

// TestTracker_Window verifies outcomes older than the window stop counting.
func TestTracker_Window(t *testing.T) {
	tr, cur := manualTracker()
	tr.RecordRequest()
	*cur = cur.Add(30 * time.Second)
	tr.RecordRequest()
	tr.RecordDenied()

	tests := []struct {
		window   time.Duration
		requests int
		denials  int
	}{
		{10 * time.Second, 2, 1},
		{30 * time.Second, 3, 1},
		{time.Minute, 3, 1},
	}
	for _, tt := range tests {
		if n := tr.RequestCount(tt.window); n != tt.requests {
			t.Errorf("RequestCount(%v) = %d, want %d", tt.window, n, tt.requests)
		}
		if n := tr.DenialCount(tt.window); n != tt.denials {
			t.Errorf("DenialCount(%v) = %d, want %d", tt.window, n, tt.denials)
		}
	}
}

// TestTracker_SubSecondWindow verifies short windows still see the current second.
func TestTracker_SubSecondWindow(t *testing.T) {
	tr, _ := manualTracker()
	tr.RecordDenied()
	if n := tr.DenialCount(time.Millisecond); n != 1 {
		t.Errorf("DenialCount(1ms) = %d, want 1", n)
	}
}

// TestTracker_RingReuse verifies a slot reused after a full lap forgets its old counts.
func TestTracker_RingReuse(t *testing.T) {
	tr, cur := manualTracker()
	for i := 0; i < 5; i++ {
		tr.RecordRequest()
	}
	*cur = cur.Add(retentionSeconds * time.Second)
	tr.RecordRequest()

	if n := tr.RequestCount(time.Hour); n != 1 {
		t.Errorf("RequestCount() after a full lap = %d, want 1", n)
	}
}

func TestPackageLevel_Reset(t *testing.T) {
	Reset()
	RecordRequest()
	RecordDenied()
	if n := RequestCount(time.Minute); n != 2 {
		t.Errorf("RequestCount() = %d, want 2", n)
	}
	Reset()
	if n := RequestCount(time.Minute); n != 0 {
		t.Errorf("After Reset, RequestCount() = %d, want 0", n)
	}
}
