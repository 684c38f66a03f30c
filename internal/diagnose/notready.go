package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// NotReadyModule explains pods stuck out of the ready set: failed probes,
// unschedulable pods, or image pull failures.
type NotReadyModule struct {
	noCollect
}

func (m *NotReadyModule) Name() string { return "pod-not-ready" }

func (m *NotReadyModule) Applicable(inv *models.Investigation) bool {
	return inv.Family == models.FamilyPodNotReady
}

func (m *NotReadyModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	cluster := inv.Evidence.Cluster
	if cluster.State != models.SectionPresent {
		return nil, nil
	}

	var hyps []models.Hypothesis

	switch cluster.ContainerWaitingReason {
	case "ImagePullBackOff", "ErrImagePull":
		hyps = append(hyps, models.Hypothesis{
			ID:         "notready/image-pull",
			Title:      "container image cannot be pulled",
			Confidence: 88,
			Evidence: []string{
				fmt.Sprintf("container waiting reason is %s", cluster.ContainerWaitingReason),
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s describe pod %s | grep -A3 Events", inv.Target.Namespace, inv.Target.Pod),
				"verify the image tag exists in the registry and pull secrets are mounted",
			},
			Supports: []string{"cluster.container_waiting_reason"},
		})
	case "CreateContainerConfigError":
		hyps = append(hyps, models.Hypothesis{
			ID:         "notready/config-error",
			Title:      "container config references a missing ConfigMap or Secret",
			Confidence: 85,
			Evidence: []string{
				"container waiting reason is CreateContainerConfigError",
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s describe pod %s", inv.Target.Namespace, inv.Target.Pod),
			},
			Supports: []string{"cluster.container_waiting_reason"},
		})
	}

	if cluster.PodPhase == "Pending" {
		h := models.Hypothesis{
			ID:         "notready/unschedulable",
			Title:      "pod is pending and may be unschedulable",
			Confidence: 60,
			Evidence: []string{
				"pod phase is Pending",
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s get events --field-selector involvedObject.name=%s,reason=FailedScheduling", inv.Target.Namespace, inv.Target.Pod),
			},
			Supports: []string{"cluster.pod_phase"},
		}
		for _, ev := range cluster.Events {
			if ev.Reason == "FailedScheduling" {
				h.Confidence = 85
				h.Evidence = append(h.Evidence, "scheduler event: "+ev.Message)
				h.Supports = append(h.Supports, "cluster.events")
				break
			}
		}
		hyps = append(hyps, h)
	}

	if cluster.PodPhase == "Running" && !cluster.Ready {
		h := models.Hypothesis{
			ID:         "notready/probe-failure",
			Title:      "pod is running but failing its readiness probe",
			Confidence: 70,
			Evidence: []string{
				"pod phase is Running while the Ready condition is false",
			},
			NextTests: []string{
				fmt.Sprintf("kubectl -n %s describe pod %s | grep -A5 Readiness", inv.Target.Namespace, inv.Target.Pod),
				fmt.Sprintf("kubectl -n %s logs %s --tail=100", inv.Target.Namespace, inv.Target.Pod),
			},
			Supports: []string{"cluster.pod_phase", "cluster.ready"},
		}
		for _, cond := range cluster.Conditions {
			if cond.Type == "Ready" && cond.Status == "False" && cond.Message != "" {
				h.Evidence = append(h.Evidence, "Ready condition: "+cond.Message)
				h.Supports = append(h.Supports, "cluster.conditions")
			}
		}
		hyps = append(hyps, h)
	}

	return hyps, nil
}
