package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// OOMKillModule confirms or disputes memory kills. The alert label alone is
// never enough: without the OOMKilled termination reason the hypothesis stays
// weak and flags the corroboration gap.
type OOMKillModule struct {
	noCollect
}

func (m *OOMKillModule) Name() string { return "oom-kill" }

func (m *OOMKillModule) Applicable(inv *models.Investigation) bool {
	return inv.Family == models.FamilyOOMKill
}

func (m *OOMKillModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	cluster := inv.Evidence.Cluster

	if cluster.State == models.SectionPresent && cluster.LastTerminationReason == "OOMKilled" {
		h := models.Hypothesis{
			ID:         "oom/confirmed",
			Title:      "container was OOM-killed by the kernel",
			Confidence: 90,
			Evidence: []string{
				fmt.Sprintf("last termination reason on %s is OOMKilled", inv.Target.Display()),
				fmt.Sprintf("restart count is %d", cluster.RestartCount),
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s get pod %s -o jsonpath='{.spec.containers[*].resources}'", inv.Target.Namespace, inv.Target.Pod),
				"plot container_memory_working_set_bytes against the memory limit",
			},
			Supports: []string{"cluster.last_termination_reason", "cluster.restart_count"},
			Proposals: []models.ActionProposal{{
				Title:   "raise the container memory limit",
				Command: fmt.Sprintf("kubectl -n %s set resources %s --limits=memory=<new-limit>", inv.Target.Namespace, ownerOrDefault(cluster, "deployment/"+inv.Target.Pod)),
				Policy:  "requires-human-approval",
			}},
		}
		if usage, ok := inv.Evidence.Metrics.Signal("memory_working_set_ratio"); ok {
			h.Evidence = append(h.Evidence, fmt.Sprintf("working set reached %.0f%% of the memory limit before the kill", usage*100))
			h.Supports = append(h.Supports, "metrics.memory_working_set_ratio")
		}
		return []models.Hypothesis{h}, nil
	}

	// Alert says OOM but the cluster does not corroborate it.
	h := models.Hypothesis{
		ID:         "oom/uncorroborated",
		Title:      "OOM alert without an OOMKilled termination on record",
		Confidence: 30,
		NextTests: []string{
			fmt.Sprintf("kubectl -n %s describe pod %s", inv.Target.Namespace, inv.Target.Pod),
			"check node-level dmesg for oom-kill entries (node-local kills bypass pod status)",
		},
		Counters: []string{"cluster.last_termination_reason"},
	}
	switch cluster.State {
	case models.SectionPresent:
		h.Evidence = append(h.Evidence, fmt.Sprintf("last termination reason is %q, not OOMKilled", cluster.LastTerminationReason))
	case models.SectionUnavailable:
		h.Evidence = append(h.Evidence, "cluster state was unavailable; the kill could not be verified either way")
		h.Confidence = 25
	default:
		h.Evidence = append(h.Evidence, "cluster state was not collected for this run")
		h.Confidence = 25
	}
	return []models.Hypothesis{h}, nil
}
