package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a bounded ring of recent duration samples and computes
// percentiles over whatever is currently retained.
type LatencyTracker struct {
	mu      sync.RWMutex
	samples []time.Duration
	next    int
	full    bool
}

// NewLatencyTracker creates a tracker retaining up to size samples.
func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 512
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

// Observe records a new duration, overwriting the oldest sample when full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples[l.next] = d
	l.next++
	if l.next == len(l.samples) {
		l.next = 0
		l.full = true
	}
}

// Count returns the number of samples currently retained.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count()
}

// Percentile returns the percentile (0-100) duration, or zero with no samples.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.count()
	if n == 0 {
		return 0
	}

	sorted := append([]time.Duration(nil), l.samples[:n]...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	idx := int((p / 100.0) * float64(n-1))
	return sorted[idx]
}

func (l *LatencyTracker) count() int {
	if l.full {
		return len(l.samples)
	}
	return l.next
}
