package collab

import (
	"context"
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// StubClient implements all four evidence collaborators in-process with canned
// data. It backs `tarka triage` when no gateway is configured, and tests.
// Zero-value fields degrade to explicit unavailability, so a StubClient also
// serves as a total-evidence-failure fixture.
type StubClient struct {
	Cluster    models.ClusterStateEvidence
	Metrics    models.MetricsEvidence
	Logs       models.LogsEvidence
	Noise      models.NoiseEvidence
	ClusterErr error
	MetricsErr error
	LogsErr    error
	NoiseErr   error
}

// HealthyStub returns a stub with a plausible, fully populated evidence set
// for the given request.
func HealthyStub(req EvidenceRequest) *StubClient {
	firing := 3
	return &StubClient{
		Cluster: models.ClusterStateEvidence{
			State:    models.SectionPresent,
			PodPhase: "Running",
			Ready:    true,
			OwnerChain: []string{
				"Deployment/" + req.Alert.Label("deployment"),
				"ReplicaSet",
			},
			RolloutStatus: "complete",
		},
		Metrics: models.MetricsEvidence{
			State:   models.SectionPresent,
			Signals: map[string]float64{"up": 1},
		},
		Logs: models.LogsEvidence{
			State:   models.SectionPresent,
			Status:  models.LogsOK,
			Lines:   []string{"listening on :8080"},
			Backend: "stub",
			Query:   "{}",
		},
		Noise: models.NoiseEvidence{
			State:       models.SectionPresent,
			FiringCount: &firing,
		},
	}
}

// FetchClusterState returns the canned cluster sub-record.
func (s *StubClient) FetchClusterState(ctx context.Context, req EvidenceRequest) (models.ClusterStateEvidence, error) {
	if s.ClusterErr != nil || s.Cluster.State == models.SectionNotAttempted {
		return models.ClusterStateEvidence{State: models.SectionUnavailable}, errOrUnset(s.ClusterErr, "cluster state")
	}
	return s.Cluster, nil
}

// FetchMetrics returns the canned metrics sub-record.
func (s *StubClient) FetchMetrics(ctx context.Context, req EvidenceRequest) (models.MetricsEvidence, error) {
	if s.MetricsErr != nil || s.Metrics.State == models.SectionNotAttempted {
		return models.MetricsEvidence{State: models.SectionUnavailable}, errOrUnset(s.MetricsErr, "metrics")
	}
	return s.Metrics, nil
}

// FetchLogs returns the canned logs sub-record.
func (s *StubClient) FetchLogs(ctx context.Context, req EvidenceRequest) (models.LogsEvidence, error) {
	if s.LogsErr != nil || s.Logs.State == models.SectionNotAttempted {
		return models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}, errOrUnset(s.LogsErr, "logs")
	}
	return s.Logs, nil
}

// FetchScope returns the canned noise sub-record.
func (s *StubClient) FetchScope(ctx context.Context, req EvidenceRequest) (models.NoiseEvidence, error) {
	if s.NoiseErr != nil || s.Noise.State == models.SectionNotAttempted {
		return models.NoiseEvidence{State: models.SectionUnavailable}, errOrUnset(s.NoiseErr, "scope")
	}
	return s.Noise, nil
}

func errOrUnset(err error, what string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("stub has no %s evidence configured", what)
}

// NoopNarrator is the Narrator used when language-model enrichment is off.
type NoopNarrator struct{}

// Name implements Narrator.Name.
func (NoopNarrator) Name() string { return "noop" }

// Narrate reports that narration is disabled.
func (NoopNarrator) Narrate(context.Context, []byte) (string, error) {
	return "", nil
}
