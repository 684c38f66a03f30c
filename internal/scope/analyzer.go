// Package scope maps firing/active instance counts to a blast-radius label
// and derives the noise hints used by scoring. When the upstream scope query
// failed, "scope unknown" is the final answer for this run, never a guess.
package scope

import (
	"sort"

	"github.com/tarkyaio/tarka/internal/models"
)

// Blast-radius labels, inclusive bounds.
const (
	LabelSingle     = "single-instance"
	LabelSmall      = "small"
	LabelMulti      = "multi-instance"
	LabelBroad      = "broad"
	LabelWidespread = "widespread"
	LabelMassive    = "massive"
	LabelUnknown    = "scope-unknown"
)

// Flap and cardinality cutoffs feeding the noise axis.
const (
	flapNoisyPerHour      = 4.0
	cardinalityNoisyCount = 50
)

// Result is the analyzer's verdict on blast radius and noise hints.
type Result struct {
	Label           string
	Known           bool
	Count           int
	FlapPerHour     float64
	Flapping        bool
	HighCardinality []string
}

// Analyze derives the blast-radius label from the firing-instance count,
// falling back to the active count, else scope-unknown.
func Analyze(noise models.NoiseEvidence) Result {
	res := Result{
		Label:       LabelUnknown,
		FlapPerHour: noise.FlapPerHour,
		Flapping:    noise.FlapPerHour >= flapNoisyPerHour,
	}

	for name, card := range noise.LabelCardinality {
		if card >= cardinalityNoisyCount {
			res.HighCardinality = append(res.HighCardinality, name)
		}
	}
	sort.Strings(res.HighCardinality)

	if noise.State != models.SectionPresent {
		return res
	}

	count := noise.FiringCount
	if count == nil {
		count = noise.ActiveCount
	}
	if count == nil || *count < 1 {
		return res
	}

	res.Known = true
	res.Count = *count
	res.Label = bandFor(*count)
	return res
}

func bandFor(n int) string {
	switch {
	case n == 1:
		return LabelSingle
	case n <= 5:
		return LabelSmall
	case n <= 20:
		return LabelMulti
	case n <= 49:
		return LabelBroad
	case n <= 100:
		return LabelWidespread
	default:
		return LabelMassive
	}
}
