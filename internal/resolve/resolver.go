// Package resolve derives the stable identity of the affected resource from
// alert labels. Resolution is a pure function; quirky alert families are
// handled by a data-driven label-override table, not per-alert code.
package resolve

import (
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// Override redirects resolution for one family: the misleading label (which
// names the scrape target, not the affected resource) is removed, and the
// alternate label supplies the real resource name. The alternate's canonical
// role is its own name with any "exported_" prefix stripped.
type Override struct {
	Family     models.Family
	Misleading string
	Alternate  string
}

// Resolve maps alert labels to a TargetRef plus the sanitized label map that
// downstream stages must use. Misleading labels never survive resolution.
func Resolve(alert models.Alert, family models.Family, overrides []Override) (models.TargetRef, map[string]string) {
	labels := make(map[string]string, len(alert.Labels))
	for k, v := range alert.Labels {
		labels[k] = v
	}

	hint := ""
	for _, ov := range overrides {
		if ov.Family != family {
			continue
		}
		altVal := labels[ov.Alternate]
		if ov.Misleading != "" {
			delete(labels, ov.Misleading)
		}
		if altVal != "" {
			role := strings.TrimPrefix(ov.Alternate, "exported_")
			labels[role] = altVal
			hint = "override:" + ov.Alternate
		}
	}

	ref := fromLabels(labels)
	if hint != "" {
		ref.RoutingHint = hint
	}
	return ref, labels
}

func fromLabels(labels map[string]string) models.TargetRef {
	base := models.TargetRef{
		Cluster:   labels["cluster"],
		Namespace: labels["namespace"],
		Container: labels["container"],
		Team:      labels["team"],
	}

	switch {
	case labels["pod"] != "" && labels["namespace"] != "":
		base.Type = models.TargetPod
		base.Pod = labels["pod"]
		base.RoutingHint = "pod_labels"

	case workloadKind(labels) != "":
		kind := workloadKind(labels)
		base.Type = models.TargetWorkload
		base.WorkloadKind = kind
		base.WorkloadName = labels[kind]
		base.RoutingHint = "workload_label"

	case labels["service"] != "":
		base.Type = models.TargetService
		base.Service = labels["service"]
		base.RoutingHint = "service_label"

	case labels["instance"] != "":
		base.Type = models.TargetNode
		base.Instance = labels["instance"]
		base.RoutingHint = "instance_label"

	case labels["cluster"] != "":
		base.Type = models.TargetCluster
		base.RoutingHint = "cluster_label"

	default:
		base.Type = models.TargetUnknown
		base.RoutingHint = "none"
	}

	return base
}

func workloadKind(labels map[string]string) string {
	for _, kind := range []string{"deployment", "statefulset", "daemonset"} {
		if labels[kind] != "" {
			return kind
		}
	}
	return ""
}
