package resolve

import (
	"testing"

	"github.com/tarkyaio/tarka/internal/models"
)

func alertWith(labels map[string]string) models.Alert {
	labels["alertname"] = "TestAlert"
	return models.Alert{Name: "TestAlert", Labels: labels}
}

func TestResolvePrecedence(t *testing.T) {
	cases := []struct {
		name     string
		labels   map[string]string
		wantType models.TargetType
		wantHint string
	}{
		{
			name:     "pod wins over everything",
			labels:   map[string]string{"pod": "web-1", "namespace": "shop", "deployment": "web", "service": "web", "instance": "10.0.0.1:9100"},
			wantType: models.TargetPod,
			wantHint: "pod_labels",
		},
		{
			name:     "pod without namespace falls through to workload",
			labels:   map[string]string{"pod": "web-1", "deployment": "web"},
			wantType: models.TargetWorkload,
			wantHint: "workload_label",
		},
		{
			name:     "workload before service",
			labels:   map[string]string{"statefulset": "db", "namespace": "shop", "service": "db"},
			wantType: models.TargetWorkload,
			wantHint: "workload_label",
		},
		{
			name:     "service before instance",
			labels:   map[string]string{"service": "api", "instance": "10.0.0.1:9100"},
			wantType: models.TargetService,
			wantHint: "service_label",
		},
		{
			name:     "instance maps to node",
			labels:   map[string]string{"instance": "10.0.0.1:9100"},
			wantType: models.TargetNode,
			wantHint: "instance_label",
		},
		{
			name:     "cluster only",
			labels:   map[string]string{"cluster": "prod-eu"},
			wantType: models.TargetCluster,
			wantHint: "cluster_label",
		},
		{
			name:     "nothing resolvable",
			labels:   map[string]string{"severity": "warning"},
			wantType: models.TargetUnknown,
			wantHint: "none",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, _ := Resolve(alertWith(tc.labels), models.FamilyCrashloop, nil)
			if ref.Type != tc.wantType {
				t.Fatalf("type = %s, want %s", ref.Type, tc.wantType)
			}
			if ref.RoutingHint != tc.wantHint {
				t.Errorf("hint = %s, want %s", ref.RoutingHint, tc.wantHint)
			}
		})
	}
}

func TestResolveUnknownIsExplicit(t *testing.T) {
	ref, _ := Resolve(alertWith(map[string]string{}), models.FamilyUnknown, nil)
	if ref.Known() {
		t.Fatalf("empty labels resolved to %s, want unknown", ref.Type)
	}
	if ref.Display() != "unknown target" {
		t.Errorf("display = %q", ref.Display())
	}
}

func TestResolveLabelOverride(t *testing.T) {
	overrides := []Override{
		{Family: models.FamilyTargetDown, Misleading: "pod", Alternate: "exported_pod"},
	}

	alert := alertWith(map[string]string{
		"pod":          "prometheus-0",
		"exported_pod": "checkout-6f7b9",
		"namespace":    "shop",
	})

	ref, labels := Resolve(alert, models.FamilyTargetDown, overrides)

	if ref.Type != models.TargetPod || ref.Pod != "checkout-6f7b9" {
		t.Fatalf("resolved %s %q, want pod checkout-6f7b9", ref.Type, ref.Pod)
	}
	if ref.RoutingHint != "override:exported_pod" {
		t.Errorf("hint = %q, want override:exported_pod", ref.RoutingHint)
	}
	if _, ok := labels["pod"]; !ok {
		t.Fatalf("sanitized labels lost the canonical pod role")
	}
	if labels["pod"] != "checkout-6f7b9" {
		t.Errorf("labels[pod] = %q, misleading value survived", labels["pod"])
	}
}

func TestResolveOverrideForOtherFamilyIgnored(t *testing.T) {
	overrides := []Override{
		{Family: models.FamilyTargetDown, Misleading: "pod", Alternate: "exported_pod"},
	}
	alert := alertWith(map[string]string{"pod": "web-1", "namespace": "shop"})

	ref, labels := Resolve(alert, models.FamilyCrashloop, overrides)
	if ref.Pod != "web-1" {
		t.Fatalf("pod = %q, override applied across families", ref.Pod)
	}
	if labels["pod"] != "web-1" {
		t.Errorf("labels mutated without a matching override")
	}
}

func TestResolveDoesNotMutateAlert(t *testing.T) {
	alert := alertWith(map[string]string{"pod": "web-1", "namespace": "shop"})
	overrides := []Override{{Family: models.FamilyCrashloop, Misleading: "pod", Alternate: "exported_pod"}}

	Resolve(alert, models.FamilyCrashloop, overrides)
	if alert.Labels["pod"] != "web-1" {
		t.Fatalf("resolver mutated the alert's own labels")
	}
}
