// Package collab defines the contracts for the engine's external
// collaborators. Collaborators are thin and swappable: each returns
// best-effort structured data or an error, and never panics past its own
// boundary. The pipeline converts every failure into degraded evidence.
package collab

import (
	"context"

	"github.com/tarkyaio/tarka/internal/models"
)

// EvidenceRequest is the read-only input handed to every evidence collaborator.
// All collaborators receive the same time window so evidence stays temporally
// consistent.
type EvidenceRequest struct {
	Alert  models.Alert
	Family models.Family
	Target models.TargetRef
	Window models.TimeWindow
}

// ClusterStateClient fetches pod status, conditions, events, owner chain, and
// rollout state for the target.
type ClusterStateClient interface {
	FetchClusterState(ctx context.Context, req EvidenceRequest) (models.ClusterStateEvidence, error)
}

// MetricsClient fetches named numeric signals for the target. Query names are
// family-specific (e.g. "throttle_ratio" for cpu_throttling, "up" for
// target_down).
type MetricsClient interface {
	FetchMetrics(ctx context.Context, req EvidenceRequest) (models.MetricsEvidence, error)
}

// LogsClient fetches ordered log lines for the target.
type LogsClient interface {
	FetchLogs(ctx context.Context, req EvidenceRequest) (models.LogsEvidence, error)
}

// ScopeClient fetches firing/active instance counts and flap inputs for the
// alert across the fleet.
type ScopeClient interface {
	FetchScope(ctx context.Context, req EvidenceRequest) (models.NoiseEvidence, error)
}

// Narrator turns a finalized investigation snapshot into a human narrative.
// It is optional, runs strictly after the deterministic pipeline, and a
// failure is reported as a status, never an abort.
type Narrator interface {
	Name() string
	Narrate(ctx context.Context, snapshot []byte) (string, error)
}
