// Package diagnose hosts the pluggable failure-mode detectors. A module reads
// evidence from the Investigation and emits ranked, evidence-cited hypotheses;
// it never mutates infrastructure and never fails the pipeline.
package diagnose

import (
	"context"

	"github.com/tarkyaio/tarka/internal/models"
)

// Module is one failure-mode detector. Collect may contribute additional
// evidence through the merge contract (best-effort, non-raising); Diagnose
// reads evidence and returns hypotheses. A ValidationError from Diagnose
// aborts only that module.
type Module interface {
	Name() string
	Applicable(inv *models.Investigation) bool
	Collect(ctx context.Context, inv *models.Investigation) error
	Diagnose(inv *models.Investigation) ([]models.Hypothesis, error)
}

// noCollect is embedded by modules that contribute no extra evidence.
type noCollect struct{}

func (noCollect) Collect(context.Context, *models.Investigation) error { return nil }

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
