package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// ThrottlingModule grades CPU throttling by the measured throttle ratio.
type ThrottlingModule struct {
	noCollect
}

func (m *ThrottlingModule) Name() string { return "cpu-throttling" }

func (m *ThrottlingModule) Applicable(inv *models.Investigation) bool {
	return inv.Family == models.FamilyCPUThrottling
}

func (m *ThrottlingModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	ratio, ok := inv.Evidence.Metrics.Signal("throttle_ratio")
	if !ok {
		return []models.Hypothesis{{
			ID:         "throttling/unmeasured",
			Title:      "throttling alert without a measured throttle ratio",
			Confidence: 25,
			Evidence: []string{
				"the throttle_ratio signal was not collected; severity cannot be graded",
			},
			NextTests: []string{
				fmt.Sprintf("query container_cpu_cfs_throttled_periods_total / container_cpu_cfs_periods_total for %s", inv.Target.Display()),
			},
			Counters: []string{"metrics.throttle_ratio"},
		}}, nil
	}

	h := models.Hypothesis{
		ID:    "throttling/cfs",
		Title: fmt.Sprintf("container is CFS-throttled %.0f%% of periods", ratio*100),
		Evidence: []string{
			fmt.Sprintf("throttle ratio over the %s window is %.2f", inv.Window.Label, ratio),
		},
		NextTests: []string{
			fmt.Sprintf("kubectl -n %s get pod %s -o jsonpath='{.spec.containers[*].resources.limits.cpu}'", inv.Target.Namespace, inv.Target.Pod),
			"compare p99 handler latency before and after the throttling started",
		},
		Supports: []string{"metrics.throttle_ratio"},
	}

	switch {
	case ratio >= 0.5:
		h.Confidence = 85
		h.Proposals = append(h.Proposals, models.ActionProposal{
			Title:   "raise the container CPU limit",
			Command: fmt.Sprintf("kubectl -n %s set resources %s --limits=cpu=<new-limit>", inv.Target.Namespace, ownerOrDefault(inv.Evidence.Cluster, "deployment/"+inv.Target.Pod)),
			Policy:  "requires-human-approval",
		})
	case ratio >= 0.25:
		h.Confidence = 65
	default:
		h.Confidence = 40
		h.Evidence = append(h.Evidence, "throttle ratio is mild; latency impact is likely negligible")
	}

	return []models.Hypothesis{h}, nil
}
