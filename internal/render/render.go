// Package render produces the two output shapes of an investigation: a
// deterministic JSON snapshot for machines and a markdown report for humans.
// Identical investigations render byte-identical snapshots; volatile fields
// (ids, timestamps) are excluded from the snapshot on purpose.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// snapshot is the stable wire form of a finished investigation. Field order is
// fixed and map keys are sorted by encoding/json, so equal inputs yield equal
// bytes.
type snapshot struct {
	Alert          string                      `json:"alert"`
	State          models.AlertState           `json:"state"`
	Family         models.Family               `json:"family"`
	Target         string                      `json:"target"`
	Window         string                      `json:"window"`
	Hypotheses     []hypothesisView            `json:"hypotheses"`
	Decision       decisionView                `json:"decision"`
	Enrichment     enrichmentView              `json:"enrichment"`
	Scores         scoresView                  `json:"scores"`
	Classification models.Classification       `json:"classification"`
	PrimaryDriver  string                      `json:"primaryDriver"`
	Narrative      string                      `json:"narrative,omitempty"`
	Severity       models.Severity             `json:"severity"`
	Errors         []models.InvestigationError `json:"errors,omitempty"`
}

type hypothesisView struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Confidence int                     `json:"confidence"`
	Evidence   []string                `json:"evidence,omitempty"`
	NextTests  []string                `json:"nextTests,omitempty"`
	Supports   []string                `json:"supports,omitempty"`
	Counters   []string                `json:"counters,omitempty"`
	Proposals  []models.ActionProposal `json:"proposals,omitempty"`
}

type decisionView struct {
	Label          string   `json:"label"`
	Why            []string `json:"why"`
	Next           []string `json:"next"`
	Discriminators []string `json:"discriminators,omitempty"`
	ScopeLabel     string   `json:"scopeLabel"`
}

type enrichmentView struct {
	Family         models.Family `json:"family"`
	Why            []string      `json:"why,omitempty"`
	Next           []string      `json:"next,omitempty"`
	Discriminators []string      `json:"discriminators,omitempty"`
}

type scoresView struct {
	Impact     int                 `json:"impact"`
	Confidence int                 `json:"confidence"`
	Noise      int                 `json:"noise"`
	Reasons    []models.ReasonCode `json:"reasons,omitempty"`
}

// Snapshot renders the deterministic JSON form.
func Snapshot(inv *models.Investigation) ([]byte, error) {
	hyps := make([]hypothesisView, 0, len(inv.Hypotheses))
	for _, h := range inv.Hypotheses {
		hyps = append(hyps, hypothesisView{
			ID:         h.ID,
			Title:      h.Title,
			Confidence: h.Confidence,
			Evidence:   h.Evidence,
			NextTests:  h.NextTests,
			Supports:   h.Supports,
			Counters:   h.Counters,
			Proposals:  h.Proposals,
		})
	}

	snap := snapshot{
		Alert:  inv.Alert.Name,
		State:  inv.Alert.State,
		Family: inv.Family,
		Target: inv.Target.Display(),
		Window: inv.Window.Label,
		Decision: decisionView{
			Label:          inv.Decision.Label,
			Why:            inv.Decision.Why,
			Next:           inv.Decision.Next,
			Discriminators: inv.Decision.Discriminators,
			ScopeLabel:     inv.Decision.ScopeLabel,
		},
		Enrichment: enrichmentView{
			Family:         inv.Enrichment.Family,
			Why:            inv.Enrichment.Why,
			Next:           inv.Enrichment.Next,
			Discriminators: inv.Enrichment.Discriminators,
		},
		Scores: scoresView{
			Impact:     inv.Scores.Impact,
			Confidence: inv.Scores.Confidence,
			Noise:      inv.Scores.Noise,
			Reasons:    inv.Scores.Reasons,
		},
		Hypotheses:     hyps,
		Classification: inv.Verdict.Classification,
		PrimaryDriver:  inv.Verdict.PrimaryDriver,
		Narrative:      inv.Verdict.Narrative,
		Severity:       inv.Verdict.Severity,
		Errors:         inv.Errors,
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Report renders the human-facing markdown report.
func Report(inv *models.Investigation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", inv.Decision.Label)
	fmt.Fprintf(&b, "**Classification:** %s · **Severity:** %s · **Scope:** %s\n\n",
		inv.Verdict.Classification, inv.Verdict.Severity, inv.Decision.ScopeLabel)
	fmt.Fprintf(&b, "**Impact %d · Confidence %d · Noise %d**\n\n",
		inv.Scores.Impact, inv.Scores.Confidence, inv.Scores.Noise)
	fmt.Fprintf(&b, "Primary driver: %s\n\n", inv.Verdict.PrimaryDriver)

	if inv.Verdict.Narrative != "" {
		fmt.Fprintf(&b, "%s\n\n", inv.Verdict.Narrative)
	}
	if inv.Narrative != "" {
		fmt.Fprintf(&b, "%s\n\n", inv.Narrative)
	}

	b.WriteString("## Why\n\n")
	for _, w := range inv.Decision.Why {
		fmt.Fprintf(&b, "- %s\n", w)
	}

	b.WriteString("\n## Next\n\n")
	for i, n := range inv.Decision.Next {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n)
	}

	if len(inv.Decision.Discriminators) > 0 {
		b.WriteString("\n## Discriminators\n\n")
		for _, d := range inv.Decision.Discriminators {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	if len(inv.Hypotheses) > 0 {
		b.WriteString("\n## Hypotheses\n\n")
		for _, h := range inv.Hypotheses {
			fmt.Fprintf(&b, "### %s (%d%%)\n\n%s\n\n", h.ID, h.Confidence, h.Title)
			for _, e := range h.Evidence {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			for _, p := range h.Proposals {
				fmt.Fprintf(&b, "\n> proposal (%s): %s\n>\n> `%s`\n", p.Policy, p.Title, p.Command)
			}
			b.WriteString("\n")
		}
	}

	if len(inv.Scores.Reasons) > 0 {
		b.WriteString("## Audit trail\n\n")
		for _, r := range inv.Scores.Reasons {
			fmt.Fprintf(&b, "- `%s`\n", r)
		}
		b.WriteString("\n")
	}

	if len(inv.Errors) > 0 {
		b.WriteString("## Collection errors\n\n")
		for _, e := range inv.Errors {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Kind, e.Stage, e.Message)
		}
	}

	return b.String()
}
