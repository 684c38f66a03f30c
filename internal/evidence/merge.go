// Package evidence enforces the merge contract: evidence accumulates into the
// Investigation idempotently and non-destructively. The first writer wins per
// sub-record, failures degrade only their own sub-record, and nothing is ever
// silently dropped.
package evidence

import "github.com/tarkyaio/tarka/internal/models"

// MergeCluster writes the cluster sub-record unless one was already written.
func MergeCluster(inv *models.Investigation, ev models.ClusterStateEvidence) bool {
	if inv.Evidence.Cluster.State != models.SectionNotAttempted {
		return false
	}
	inv.Evidence.Cluster = ev
	return true
}

// MergeMetrics writes the metrics sub-record unless one was already written.
func MergeMetrics(inv *models.Investigation, ev models.MetricsEvidence) bool {
	if inv.Evidence.Metrics.State != models.SectionNotAttempted {
		return false
	}
	inv.Evidence.Metrics = ev
	return true
}

// MergeLogs writes the logs sub-record unless one was already written.
func MergeLogs(inv *models.Investigation, ev models.LogsEvidence) bool {
	if inv.Evidence.Logs.State != models.SectionNotAttempted {
		return false
	}
	inv.Evidence.Logs = ev
	return true
}

// MergeNoise writes the noise sub-record unless one was already written.
func MergeNoise(inv *models.Investigation, ev models.NoiseEvidence) bool {
	if inv.Evidence.Noise.State != models.SectionNotAttempted {
		return false
	}
	inv.Evidence.Noise = ev
	return true
}

// MergeSignal adds one named metric signal without overwriting an existing
// value for the same name. Diagnostic modules use this during their collect
// phase to contribute extra signals.
func MergeSignal(inv *models.Investigation, name string, value float64) bool {
	m := &inv.Evidence.Metrics
	if m.Signals == nil {
		m.Signals = make(map[string]float64)
	}
	if _, exists := m.Signals[name]; exists {
		return false
	}
	m.Signals[name] = value
	if m.State == models.SectionNotAttempted {
		m.State = models.SectionPresent
	}
	return true
}
