package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
)

func renderedInvestigation() *models.Investigation {
	return &models.Investigation{
		ID: "ephemeral-id",
		Alert: models.Alert{
			Name:  "KubePodCrashLooping",
			State: models.AlertFiring,
		},
		Family: models.FamilyCrashloop,
		Window: models.TimeWindow{Label: "1h"},
		Target: models.TargetRef{Type: models.TargetPod, Namespace: "shop", Pod: "web-1"},
		Hypotheses: []models.Hypothesis{{
			ID:         "crashloop/backoff",
			Title:      "container is in CrashLoopBackOff",
			Confidence: 85,
			Evidence:   []string{"restart count is 7"},
			Proposals: []models.ActionProposal{{
				Title:   "restart the owning workload",
				Command: "kubectl -n shop rollout restart deployment/web",
				Policy:  "requires-human-approval",
			}},
		}},
		Decision: models.Decision{
			Label:      "investigate web-1",
			Why:        []string{"alert is firing", "restarts observed"},
			Next:       []string{"kubectl -n shop logs web-1 --previous"},
			ScopeLabel: "small",
		},
		Scores: models.Scores{
			Impact: 75, Confidence: 80, Noise: 10,
			Reasons: []models.ReasonCode{models.ReasonEvidenceCorroborated},
		},
		Verdict: models.Verdict{
			Classification: models.ClassActionable,
			PrimaryDriver:  "container is in CrashLoopBackOff",
			Narrative:      "actionable: container is in CrashLoopBackOff on pod shop/web-1 (blast radius small)",
			Severity:       models.SeverityHigh,
		},
		CreatedAt: time.Now(),
	}
}

func TestSnapshotExcludesVolatileFields(t *testing.T) {
	data, err := Snapshot(renderedInvestigation())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	for _, volatile := range []string{"id", "createdAt", "completedAt"} {
		if _, ok := decoded[volatile]; ok {
			t.Errorf("snapshot carries volatile field %q", volatile)
		}
	}
	if decoded["alert"] != "KubePodCrashLooping" || decoded["classification"] != "actionable" {
		t.Errorf("snapshot = %v", decoded)
	}
	if decoded["narrative"] != "actionable: container is in CrashLoopBackOff on pod shop/web-1 (blast radius small)" {
		t.Errorf("snapshot narrative = %v", decoded["narrative"])
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	a, err := Snapshot(renderedInvestigation())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := Snapshot(renderedInvestigation())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("equal investigations rendered different snapshots:\n%s\n---\n%s", a, b)
	}

	changed := renderedInvestigation()
	changed.ID = "different-ephemeral-id"
	c, err := Snapshot(changed)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(a, c) {
		t.Fatalf("volatile id leaked into the snapshot")
	}
}

func TestReportSections(t *testing.T) {
	inv := renderedInvestigation()
	inv.Errors = []models.InvestigationError{
		{Stage: "logs", Kind: models.ErrKindExternal, Message: "victorialogs: 503"},
	}

	report := Report(inv)

	for _, want := range []string{
		"# investigate web-1",
		"**Classification:** actionable",
		"actionable: container is in CrashLoopBackOff on pod shop/web-1 (blast radius small)",
		"## Why",
		"- alert is firing",
		"## Next",
		"1. kubectl -n shop logs web-1 --previous",
		"## Hypotheses",
		"### crashloop/backoff (85%)",
		"> proposal (requires-human-approval): restart the owning workload",
		"## Audit trail",
		"- `EVIDENCE_CORROBORATED`",
		"## Collection errors",
		"- [external_service] logs: victorialogs: 503",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestReportOmitsEmptySections(t *testing.T) {
	inv := renderedInvestigation()
	inv.Hypotheses = nil
	inv.Scores.Reasons = nil
	inv.Errors = nil

	report := Report(inv)
	for _, section := range []string{"## Hypotheses", "## Audit trail", "## Collection errors", "## Discriminators"} {
		if strings.Contains(report, section) {
			t.Errorf("empty section %q rendered", section)
		}
	}
}
