// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed investigations.
	OutcomeSuccess = "success"
	// OutcomeError labels investigations that failed before producing a verdict.
	OutcomeError = "error"
)

var (
	investigationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tarka",
			Name:      "investigations_total",
			Help:      "Investigations handled, partitioned by outcome and classification.",
		},
		[]string{"outcome", "classification"},
	)

	investigationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tarka",
			Name:      "investigation_seconds",
			Help:      "End-to-end investigation latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	dedupeSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tarka",
			Name:      "dedupe_suppressed_total",
			Help:      "Alert instances suppressed as duplicates before investigation.",
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tarka",
			Name:      "queue_depth",
			Help:      "Alert instances waiting for a worker.",
		},
	)

	evidenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tarka",
			Name:      "evidence_errors_total",
			Help:      "Evidence collection errors, partitioned by stage.",
		},
		[]string{"stage"},
	)
)

// Register attaches the engine's collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		investigationsTotal,
		investigationDurationSeconds,
		dedupeSuppressedTotal,
		queueDepth,
		evidenceErrorsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveInvestigation records one finished investigation.
func ObserveInvestigation(duration time.Duration, outcome, classification string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	investigationsTotal.WithLabelValues(label, classification).Inc()
	if duration < 0 {
		duration = 0
	}
	investigationDurationSeconds.Observe(duration.Seconds())
}

// ObserveDedupeSuppressed counts a duplicate suppressed before the pipeline.
func ObserveDedupeSuppressed() { dedupeSuppressedTotal.Inc() }

// SetQueueDepth publishes the current queue backlog.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

// ObserveEvidenceError counts a degraded evidence stage.
func ObserveEvidenceError(stage string) { evidenceErrorsTotal.WithLabelValues(stage).Inc() }
