package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// RolloutModule explains stalled deployments. A rollout status of "complete"
// while the alert still fires is the classic stale-alert artifact; the
// contradiction is surfaced as a counter-signal rather than suppressed.
type RolloutModule struct {
	noCollect
}

func (m *RolloutModule) Name() string { return "rollout-stuck" }

func (m *RolloutModule) Applicable(inv *models.Investigation) bool {
	return inv.Family == models.FamilyRolloutStuck
}

func (m *RolloutModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	cluster := inv.Evidence.Cluster
	if cluster.State != models.SectionPresent {
		return nil, nil
	}

	if cluster.RolloutStatus == "complete" {
		return []models.Hypothesis{{
			ID:         "rollout/already-complete",
			Title:      "rollout reports complete; the alert is likely stale",
			Confidence: 80,
			Evidence: []string{
				fmt.Sprintf("rollout status for %s is complete while the alert fires", inv.Target.Display()),
			},
			NextTests: []string{
				"check whether the alert has resolved upstream since collection",
			},
			Counters: []string{"alert.state"},
			Supports: []string{"cluster.rollout_status"},
		}}, nil
	}

	h := models.Hypothesis{
		ID:         "rollout/stalled",
		Title:      fmt.Sprintf("rollout is %s and not progressing", orUnknown(cluster.RolloutStatus)),
		Confidence: 70,
		Evidence: []string{
			fmt.Sprintf("rollout status is %q", cluster.RolloutStatus),
		},
		NextTests: []string{
			fmt.Sprintf("kubectl -n %s rollout status %s", inv.Target.Namespace, ownerOrDefault(cluster, "deployment/"+inv.Target.WorkloadName)),
			fmt.Sprintf("kubectl -n %s get rs -l app=%s", inv.Target.Namespace, inv.Target.WorkloadName),
		},
		Supports: []string{"cluster.rollout_status"},
	}

	for _, ev := range cluster.Events {
		if ev.Reason == "ProgressDeadlineExceeded" {
			h.Confidence = 85
			h.Evidence = append(h.Evidence, "event ProgressDeadlineExceeded: "+ev.Message)
			h.Supports = append(h.Supports, "cluster.events")
			h.Proposals = append(h.Proposals, models.ActionProposal{
				Title:   "roll back to the previous revision",
				Command: fmt.Sprintf("kubectl -n %s rollout undo %s", inv.Target.Namespace, ownerOrDefault(cluster, "deployment/"+inv.Target.WorkloadName)),
				Policy:  "requires-human-approval",
			})
			break
		}
	}

	return []models.Hypothesis{h}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "in an unknown state"
	}
	return s
}
