package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

// CrashloopModule explains restart loops from container status, termination
// reasons, and recent events.
type CrashloopModule struct {
	noCollect
}

func (m *CrashloopModule) Name() string { return "crashloop" }

func (m *CrashloopModule) Applicable(inv *models.Investigation) bool {
	return inv.Family == models.FamilyCrashloop
}

func (m *CrashloopModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	if !inv.Target.Known() {
		return nil, utils.ValidationError("crashloop.diagnose", "target identity required", nil)
	}

	cluster := inv.Evidence.Cluster
	if cluster.State != models.SectionPresent {
		return nil, nil
	}

	var hyps []models.Hypothesis

	if cluster.ContainerWaitingReason == "CrashLoopBackOff" {
		h := models.Hypothesis{
			ID:         "crashloop/backoff",
			Title:      "container is in CrashLoopBackOff",
			Confidence: 85,
			Evidence: []string{
				fmt.Sprintf("container waiting reason is CrashLoopBackOff on %s", inv.Target.Display()),
				fmt.Sprintf("restart count is %d inside the %s window", cluster.RestartCount, inv.Window.Label),
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s logs %s --previous", inv.Target.Namespace, inv.Target.Pod),
				fmt.Sprintf("kubectl -n %s describe pod %s", inv.Target.Namespace, inv.Target.Pod),
			},
			Supports: []string{"cluster.container_waiting_reason", "cluster.restart_count"},
		}
		if cluster.LastTerminationReason != "" {
			h.Evidence = append(h.Evidence, "last termination reason: "+cluster.LastTerminationReason)
			h.Supports = append(h.Supports, "cluster.last_termination_reason")
		}
		if cluster.LastTerminationReason == "Error" || cluster.LastTerminationReason == "" {
			h.Proposals = append(h.Proposals, models.ActionProposal{
				Title:   "restart the owning workload",
				Command: fmt.Sprintf("kubectl -n %s rollout restart %s", inv.Target.Namespace, ownerOrDefault(cluster, "deployment/"+inv.Target.Pod)),
				Policy:  "requires-human-approval",
			})
		}
		hyps = append(hyps, h)
	}

	for _, ev := range cluster.Events {
		if ev.Reason == "BackOff" || ev.Reason == "Failed" {
			hyps = append(hyps, models.Hypothesis{
				ID:         "crashloop/event-backoff",
				Title:      "recent cluster events show repeated restarts",
				Confidence: 55,
				Evidence: []string{
					fmt.Sprintf("event %s: %s", ev.Reason, ev.Message),
				},
				NextTests: []string{
					fmt.Sprintf("kubectl -n %s get events --field-selector involvedObject.name=%s", inv.Target.Namespace, inv.Target.Pod),
				},
				Supports: []string{"cluster.events"},
			})
			break
		}
	}

	if cluster.RestartCount > 0 && len(hyps) == 0 {
		hyps = append(hyps, models.Hypothesis{
			ID:         "crashloop/restarts-only",
			Title:      fmt.Sprintf("%d restarts without a current backoff", cluster.RestartCount),
			Confidence: 35,
			Evidence: []string{
				fmt.Sprintf("restart count is %d but the container is not currently waiting", cluster.RestartCount),
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s logs %s --previous", inv.Target.Namespace, inv.Target.Pod),
			},
			Supports: []string{"cluster.restart_count"},
			Counters: []string{"cluster.container_waiting_reason"},
		})
	}

	return hyps, nil
}

func ownerOrDefault(cluster models.ClusterStateEvidence, fallback string) string {
	if len(cluster.OwnerChain) > 0 {
		return cluster.OwnerChain[0]
	}
	return fallback
}
