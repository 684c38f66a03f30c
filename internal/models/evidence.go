package models

import "time"

// SectionState makes partial evidence explicit: a sub-record is untouched,
// populated, or known-unavailable. Nothing is ever silently dropped.
type SectionState string

const (
	// SectionNotAttempted is the zero value: no collaborator has written yet.
	SectionNotAttempted SectionState = ""
	SectionPresent      SectionState = "present"
	SectionUnavailable  SectionState = "unavailable"
)

// PodCondition mirrors a cluster pod condition relevant to triage.
type PodCondition struct {
	Type    string
	Status  string
	Reason  string
	Message string
}

// ClusterEvent is a recent cluster event scoped to the target.
type ClusterEvent struct {
	Time    time.Time
	Type    string
	Reason  string
	Message string
}

// ClusterStateEvidence captures the cluster-state collaborator's view of the
// target: pod status, conditions, owner chain, and rollout progress.
type ClusterStateEvidence struct {
	State                  SectionState
	PodPhase               string
	Ready                  bool
	Conditions             []PodCondition
	Events                 []ClusterEvent
	OwnerChain             []string
	RolloutStatus          string
	RestartCount           int
	LastTerminationReason  string
	ContainerWaitingReason string
}

// MetricsEvidence holds named numeric signals keyed by family-specific query
// name (e.g. "throttle_ratio", "up").
type MetricsEvidence struct {
	State   SectionState
	Signals map[string]float64
}

// Signal returns a named signal and whether it was collected.
func (m MetricsEvidence) Signal(name string) (float64, bool) {
	if m.State != SectionPresent || m.Signals == nil {
		return 0, false
	}
	v, ok := m.Signals[name]
	return v, ok
}

// LogStatus is the tri-state outcome of a log query.
type LogStatus string

const (
	LogsOK          LogStatus = "ok"
	LogsEmpty       LogStatus = "empty"
	LogsUnavailable LogStatus = "unavailable"
)

// LogsEvidence holds ordered log lines plus the query provenance.
type LogsEvidence struct {
	State   SectionState
	Status  LogStatus
	Lines   []string
	Backend string
	Query   string
}

// NoiseEvidence carries blast-radius and flap inputs from the scope query.
// FiringCount/ActiveCount are nil when the upstream query failed or returned a
// non-numeric result.
type NoiseEvidence struct {
	State            SectionState
	FiringCount      *int
	ActiveCount      *int
	FlapPerHour      float64
	LabelCardinality map[string]int
}

// Evidence is the set of independently tri-state sub-records accumulated by the
// merge contract. Each collaborator writes exactly one sub-record.
type Evidence struct {
	Cluster ClusterStateEvidence
	Metrics MetricsEvidence
	Logs    LogsEvidence
	Noise   NoiseEvidence
}
