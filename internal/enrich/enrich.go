// Package enrich layers family-specific guidance on top of the base decision.
// Enrichment is strictly additive: it appends bullets and actions and never
// removes or rewrites what the base decision asserted.
package enrich

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

type enricher func(inv *models.Investigation) models.Enrichment

var byFamily = map[models.Family]enricher{
	models.FamilyCrashloop:     crashloop,
	models.FamilyOOMKill:       oomKill,
	models.FamilyCPUThrottling: throttling,
	models.FamilyPodNotReady:   notReady,
	models.FamilyRolloutStuck:  rollout,
	models.FamilyTargetDown:    targetDown,
	models.FamilyMeta:          meta,
}

// Apply computes the family enrichment and appends it to the investigation's
// decision. Families without an enricher get an empty enrichment block.
func Apply(inv *models.Investigation) {
	fn, ok := byFamily[inv.Family]
	if !ok {
		inv.Enrichment = models.Enrichment{Family: inv.Family}
		return
	}

	e := fn(inv)
	e.Family = inv.Family
	inv.Enrichment = e

	inv.Decision.Why = append(inv.Decision.Why, e.Why...)
	inv.Decision.Next = append(inv.Decision.Next, e.Next...)
	inv.Decision.Discriminators = append(inv.Decision.Discriminators, e.Discriminators...)
}

func crashloop(inv *models.Investigation) models.Enrichment {
	e := models.Enrichment{
		Next: []string{
			fmt.Sprintf("kubectl -n %s get pod %s -o jsonpath='{.status.containerStatuses[*].lastState}'", inv.Target.Namespace, inv.Target.Pod),
		},
	}
	if r := inv.Evidence.Cluster.LastTerminationReason; r != "" {
		e.Why = append(e.Why, fmt.Sprintf("crash cause on record: %s", r))
	}
	e.Discriminators = append(e.Discriminators, "distinguish config crash (fails instantly) from resource crash (fails under load): check time-to-exit in previous logs")
	return e
}

func oomKill(inv *models.Investigation) models.Enrichment {
	e := models.Enrichment{
		Why: []string{
			"memory kills recur until the limit or the workload changes",
		},
		Next: []string{
			"plot container_memory_working_set_bytes vs the limit over 24h to separate leak from undersizing",
		},
	}
	e.Discriminators = append(e.Discriminators, "leak shows monotonic growth to the kill; undersizing shows steady usage near the limit")
	return e
}

func throttling(inv *models.Investigation) models.Enrichment {
	return models.Enrichment{
		Why: []string{
			"throttling degrades latency silently before it trips error budgets",
		},
		Next: []string{
			"correlate throttle periods with p99 latency on the same panel",
		},
		Discriminators: []string{
			"limit too low (sustained throttling) vs burst pattern (periodic spikes): inspect the throttle ratio shape",
		},
	}
}

func notReady(inv *models.Investigation) models.Enrichment {
	var e models.Enrichment
	if name := orDefault(inv.Target.Service, inv.Target.WorkloadName); name != "" {
		e.Next = append(e.Next, fmt.Sprintf("kubectl -n %s get endpoints %s", inv.Target.Namespace, name))
	}
	if inv.Evidence.Cluster.State == models.SectionPresent && inv.Evidence.Cluster.PodPhase == "Running" {
		e.Why = append(e.Why, "pod is scheduled and running, so the gap is the readiness gate, not scheduling")
	}
	return e
}

func rollout(inv *models.Investigation) models.Enrichment {
	return models.Enrichment{
		Why: []string{
			"a stalled rollout pins traffic on the old replica set until resolved",
		},
		Next: []string{
			fmt.Sprintf("kubectl -n %s rollout history %s/%s", inv.Target.Namespace, orDefault(inv.Target.WorkloadKind, "deployment"), inv.Target.WorkloadName),
		},
		Discriminators: []string{
			"new pods crashing (rollback) vs new pods unschedulable (capacity): check the newest replica set's pod states",
		},
	}
}

func targetDown(inv *models.Investigation) models.Enrichment {
	e := models.Enrichment{
		Discriminators: []string{
			"process dead vs network partition: pod status up + scrape failing means the path, not the process",
		},
	}
	if inv.Target.Type == models.TargetNode {
		e.Next = append(e.Next, fmt.Sprintf("kubectl describe node %s | grep -A5 Conditions", inv.Target.Instance))
	}
	return e
}

func meta(inv *models.Investigation) models.Enrichment {
	return models.Enrichment{
		Why: []string{
			fmt.Sprintf("%s is a monitoring self-check, not a service symptom", inv.Alert.Name),
		},
		Next: []string{
			"verify the alerting pipeline itself (Alertmanager, rule evaluation) rather than any workload",
		},
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
