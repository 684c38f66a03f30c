package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// GenericModule is the fallback when no family-specific module applies. It
// restates whatever evidence exists so the report is never empty-handed.
type GenericModule struct {
	noCollect
}

func (m *GenericModule) Name() string { return "generic" }

func (m *GenericModule) Applicable(*models.Investigation) bool { return true }

func (m *GenericModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	h := models.Hypothesis{
		ID:         "generic/uncategorized",
		Title:      fmt.Sprintf("alert %s has no dedicated detector", inv.Alert.Name),
		Confidence: 20,
		NextTests: []string{
			"review the alerting rule expression via the generator URL",
		},
	}

	if inv.Evidence.Cluster.State == models.SectionPresent {
		h.Evidence = append(h.Evidence, fmt.Sprintf("pod phase is %q, ready=%t", inv.Evidence.Cluster.PodPhase, inv.Evidence.Cluster.Ready))
		h.Supports = append(h.Supports, "cluster.pod_phase")
	}
	if inv.Evidence.Logs.State == models.SectionPresent && inv.Evidence.Logs.Status == models.LogsOK {
		h.Evidence = append(h.Evidence, fmt.Sprintf("%d log lines collected from %s", len(inv.Evidence.Logs.Lines), inv.Evidence.Logs.Backend))
		h.Supports = append(h.Supports, "logs.lines")
	}
	if len(h.Evidence) == 0 {
		h.Evidence = append(h.Evidence, "no corroborating evidence was collected for this alert")
		h.Confidence = 10
	}

	return []models.Hypothesis{h}, nil
}
