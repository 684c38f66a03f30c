package diagnose

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// TargetDownModule separates a genuinely dead scrape target from a target that
// is answering probes again. An up==1 reading while the alert fires is the
// recovered-artifact tell and is reported as a contradiction.
type TargetDownModule struct {
	noCollect
}

func (m *TargetDownModule) Name() string { return "target-down" }

func (m *TargetDownModule) Applicable(inv *models.Investigation) bool {
	return inv.Family == models.FamilyTargetDown
}

func (m *TargetDownModule) Diagnose(inv *models.Investigation) ([]models.Hypothesis, error) {
	up, measured := inv.Evidence.Metrics.Signal("up")

	if measured && up >= 1 {
		return []models.Hypothesis{{
			ID:         "targetdown/recovered",
			Title:      "target is answering scrapes again",
			Confidence: 85,
			Evidence: []string{
				fmt.Sprintf("up == 1 for %s while the alert still fires", inv.Target.Display()),
			},
			NextTests: []string{
				"confirm the alert resolves within the next evaluation cycle",
			},
			Counters: []string{"alert.state"},
			Supports: []string{"metrics.up"},
		}}, nil
	}

	h := models.Hypothesis{
		ID:         "targetdown/unreachable",
		Title:      fmt.Sprintf("%s is not answering scrapes", inv.Target.Display()),
		Confidence: 75,
		NextTests: []string{
			"curl the metrics endpoint from inside the cluster network",
			"check whether the target process or pod is running",
		},
		Supports: []string{"metrics.up"},
	}

	if measured {
		h.Evidence = append(h.Evidence, "up == 0 over the collection window")
	} else {
		h.Evidence = append(h.Evidence, "the up signal itself was not collectable, consistent with the target being gone")
		h.Confidence = 60
	}

	cluster := inv.Evidence.Cluster
	if cluster.State == models.SectionPresent {
		if cluster.PodPhase != "" && cluster.PodPhase != "Running" {
			h.Confidence = 85
			h.Evidence = append(h.Evidence, fmt.Sprintf("backing pod phase is %s", cluster.PodPhase))
			h.Supports = append(h.Supports, "cluster.pod_phase")
		}
		if cluster.PodPhase == "Running" && cluster.Ready {
			h.Evidence = append(h.Evidence, "backing pod is running and ready; suspect network path or scrape config")
			h.Counters = append(h.Counters, "cluster.ready")
		}
	}

	return []models.Hypothesis{h}, nil
}
