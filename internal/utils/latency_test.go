package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerEmpty(t *testing.T) {
	l := NewLatencyTracker(8)
	if l.Count() != 0 {
		t.Fatalf("count = %d", l.Count())
	}
	if got := l.Percentile(50); got != 0 {
		t.Fatalf("p50 on empty tracker = %v", got)
	}
}

func TestLatencyTrackerPercentiles(t *testing.T) {
	l := NewLatencyTracker(16)
	for i := 1; i <= 10; i++ {
		l.Observe(time.Duration(i) * time.Millisecond)
	}

	if l.Count() != 10 {
		t.Fatalf("count = %d", l.Count())
	}
	if got := l.Percentile(0); got != time.Millisecond {
		t.Errorf("p0 = %v", got)
	}
	if got := l.Percentile(100); got != 10*time.Millisecond {
		t.Errorf("p100 = %v", got)
	}
	if got := l.Percentile(50); got < 4*time.Millisecond || got > 6*time.Millisecond {
		t.Errorf("p50 = %v", got)
	}
}

func TestLatencyTrackerWrapsAround(t *testing.T) {
	l := NewLatencyTracker(4)
	for i := 1; i <= 10; i++ {
		l.Observe(time.Duration(i) * time.Second)
	}
	if l.Count() != 4 {
		t.Fatalf("count = %d, want ring capacity", l.Count())
	}
	// Only the most recent window is retained, so even p0 sits above the
	// earliest evicted samples.
	if got := l.Percentile(0); got < 5*time.Second {
		t.Errorf("p0 = %v after wrap", got)
	}
}
