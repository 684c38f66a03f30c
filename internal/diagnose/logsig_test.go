package diagnose

import (
	"testing"

	"github.com/tarkyaio/tarka/internal/models"
)

func TestLogSignatureMatches(t *testing.T) {
	inv := testInvestigation(models.FamilyUnknown)
	inv.Evidence.Logs = models.LogsEvidence{
		State:   models.SectionPresent,
		Status:  models.LogsOK,
		Backend: "victorialogs",
		Lines: []string{
			"starting server",
			"panic: runtime error: invalid memory address",
			"dial tcp 10.0.0.1:8443: connect: connection refused",
			"dial tcp 10.0.0.1:8443: connect: connection refused",
		},
	}

	m := &LogSignatureModule{}
	if !m.Applicable(inv) {
		t.Fatalf("module not applicable with ok logs")
	}
	hyps, err := m.Diagnose(inv)
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}

	byID := map[string]models.Hypothesis{}
	for _, h := range hyps {
		byID[h.ID] = h
	}
	if _, ok := byID["logs/signature:panic"]; !ok {
		t.Errorf("panic signature not detected: %v", hyps)
	}
	refused, ok := byID["logs/signature:connection-refused"]
	if !ok {
		t.Fatalf("connection-refused signature not detected: %v", hyps)
	}
	if len(refused.Evidence) == 0 {
		t.Errorf("hypothesis cites no evidence")
	}
}

func TestLogSignatureNotApplicableWithoutLogs(t *testing.T) {
	m := &LogSignatureModule{}

	inv := testInvestigation(models.FamilyUnknown)
	if m.Applicable(inv) {
		t.Errorf("applicable with no logs collected")
	}

	inv.Evidence.Logs = models.LogsEvidence{State: models.SectionPresent, Status: models.LogsEmpty}
	if m.Applicable(inv) {
		t.Errorf("applicable with empty logs")
	}

	inv.Evidence.Logs = models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}
	if m.Applicable(inv) {
		t.Errorf("applicable with unavailable logs")
	}
}

func TestOOMUncorroboratedStaysWeak(t *testing.T) {
	inv := testInvestigation(models.FamilyOOMKill)
	inv.Evidence.Cluster = models.ClusterStateEvidence{
		State:                 models.SectionPresent,
		LastTerminationReason: "Completed",
	}

	m := &OOMKillModule{}
	hyps, err := m.Diagnose(inv)
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if len(hyps) != 1 || hyps[0].ID != "oom/uncorroborated" {
		t.Fatalf("got %+v, want single oom/uncorroborated", hyps)
	}
	if hyps[0].Confidence > 35 {
		t.Errorf("uncorroborated OOM confidence %d too high", hyps[0].Confidence)
	}
}

func TestOOMConfirmed(t *testing.T) {
	inv := testInvestigation(models.FamilyOOMKill)
	inv.Evidence.Cluster = models.ClusterStateEvidence{
		State:                 models.SectionPresent,
		LastTerminationReason: "OOMKilled",
		RestartCount:          4,
	}

	m := &OOMKillModule{}
	hyps, err := m.Diagnose(inv)
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if len(hyps) != 1 || hyps[0].ID != "oom/confirmed" {
		t.Fatalf("got %+v, want oom/confirmed", hyps)
	}
	if len(hyps[0].Proposals) == 0 {
		t.Errorf("confirmed OOM carries no remediation proposal")
	}
	if hyps[0].Proposals[0].Policy != "requires-human-approval" {
		t.Errorf("proposal policy = %q", hyps[0].Proposals[0].Policy)
	}
}

func TestTargetDownRecoveredContradiction(t *testing.T) {
	inv := testInvestigation(models.FamilyTargetDown)
	inv.Evidence.Metrics = models.MetricsEvidence{
		State:   models.SectionPresent,
		Signals: map[string]float64{"up": 1},
	}

	m := &TargetDownModule{}
	hyps, err := m.Diagnose(inv)
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if len(hyps) != 1 || hyps[0].ID != "targetdown/recovered" {
		t.Fatalf("got %+v, want targetdown/recovered", hyps)
	}
	if len(hyps[0].Counters) == 0 {
		t.Errorf("recovered hypothesis does not counter the alert state")
	}
}
