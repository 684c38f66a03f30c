package decision

import (
	"strings"
	"testing"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/scope"
)

func baseInvestigation() *models.Investigation {
	return &models.Investigation{
		ID: "inv-1",
		Alert: models.Alert{
			Name:     "KubePodCrashLooping",
			State:    models.AlertFiring,
			StartsAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		},
		Family: models.FamilyCrashloop,
		Window: models.WindowEnding(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), time.Hour),
		Target: models.TargetRef{Type: models.TargetPod, Namespace: "shop", Pod: "checkout-6f7b9"},
		Evidence: models.Evidence{
			Cluster: models.ClusterStateEvidence{State: models.SectionPresent},
			Logs:    models.LogsEvidence{State: models.SectionPresent, Status: models.LogsOK},
		},
		Hypotheses: []models.Hypothesis{{
			ID:         "crashloop/backoff",
			Title:      "container is in CrashLoopBackOff",
			Confidence: 85,
			Evidence:   []string{"restart count is 7"},
			NextTests:  []string{"kubectl -n shop logs checkout-6f7b9 --previous"},
		}},
	}
}

func knownScope() scope.Result {
	return scope.Result{Label: scope.LabelSmall, Known: true, Count: 3}
}

func TestBuildUnblockedDecision(t *testing.T) {
	inv := baseInvestigation()
	d := NewBuilder().Build(inv, knownScope())

	if strings.Contains(d.Label, "blocked") {
		t.Fatalf("label %q reports blocked with full evidence", d.Label)
	}
	if len(d.Why) < 6 || len(d.Why) > 10 {
		t.Fatalf("why has %d bullets, want 6-10", len(d.Why))
	}
	if len(d.Next) < 3 || len(d.Next) > 7 {
		t.Fatalf("next has %d actions, want 3-7", len(d.Next))
	}
	if d.ScopeLabel != scope.LabelSmall {
		t.Errorf("scope label = %s", d.ScopeLabel)
	}
	found := false
	for _, disc := range d.Discriminators {
		if strings.HasPrefix(disc, "confirm-or-refute:") {
			found = true
		}
	}
	if !found {
		t.Errorf("unblocked decision lacks a concrete discriminator: %v", d.Discriminators)
	}
}

func TestBuildNamesEveryBlocker(t *testing.T) {
	inv := baseInvestigation()
	inv.Target = models.TargetRef{Type: models.TargetUnknown}
	inv.Evidence.Cluster = models.ClusterStateEvidence{State: models.SectionUnavailable}
	inv.Evidence.Logs = models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}
	inv.Hypotheses = nil

	d := NewBuilder().Build(inv, scope.Result{Label: scope.LabelUnknown})

	want := []string{BlockedNoIdentity, BlockedNoScope, BlockedNoK8sContext, BlockedNoLogs}
	for _, blocker := range want {
		if !containsString(d.Discriminators, blocker) {
			t.Errorf("discriminators %v missing %s", d.Discriminators, blocker)
		}
	}
	if !strings.Contains(d.Label, "blocked") {
		t.Errorf("label %q does not say blocked", d.Label)
	}
	// Each blocker contributes an unblocking action; bounds still hold.
	if len(d.Next) < 3 || len(d.Next) > 7 {
		t.Fatalf("next has %d actions, want 3-7", len(d.Next))
	}
	if len(d.Why) < 6 || len(d.Why) > 10 {
		t.Fatalf("why has %d bullets, want 6-10", len(d.Why))
	}
}

func TestBuildSingleBlockerDoesNotHideOthers(t *testing.T) {
	inv := baseInvestigation()
	inv.Evidence.Logs = models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}

	d := NewBuilder().Build(inv, knownScope())

	if !containsString(d.Discriminators, BlockedNoLogs) {
		t.Fatalf("missing logs blocker: %v", d.Discriminators)
	}
	if containsString(d.Discriminators, BlockedNoIdentity) || containsString(d.Discriminators, BlockedNoScope) {
		t.Errorf("spurious blockers: %v", d.Discriminators)
	}
}

func TestBuildUnblockedWithoutHypothesesKeepsDiscriminator(t *testing.T) {
	inv := baseInvestigation()
	inv.Alert.Name = "KubePodNotReady"
	inv.Family = models.FamilyPodNotReady
	inv.Hypotheses = nil
	inv.Evidence = models.Evidence{
		Cluster: models.ClusterStateEvidence{State: models.SectionPresent, PodPhase: "Running", Ready: true},
		Logs:    models.LogsEvidence{State: models.SectionPresent, Status: models.LogsEmpty},
	}

	d := NewBuilder().Build(inv, knownScope())

	if !strings.Contains(d.Label, "no hypothesis survived triage") {
		t.Fatalf("label = %q", d.Label)
	}
	if len(d.Discriminators) == 0 {
		t.Fatalf("unblocked decision without hypotheses has no discriminator")
	}
	if !strings.HasPrefix(d.Discriminators[0], "confirm-or-refute:") {
		t.Errorf("discriminator %q is not a concrete check", d.Discriminators[0])
	}
}

func TestBuildBoundsWithThinEvidence(t *testing.T) {
	inv := baseInvestigation()
	inv.Hypotheses = nil
	inv.Evidence = models.Evidence{
		Cluster: models.ClusterStateEvidence{State: models.SectionPresent},
		Logs:    models.LogsEvidence{State: models.SectionPresent, Status: models.LogsEmpty},
	}

	d := NewBuilder().Build(inv, knownScope())
	if len(d.Why) < 6 {
		t.Fatalf("thin evidence produced only %d why bullets", len(d.Why))
	}
	if len(d.Next) < 3 {
		t.Fatalf("thin evidence produced only %d next actions", len(d.Next))
	}
}

func containsString(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
