// Package decision builds the family-agnostic triage block: a one-line label,
// evidence-grounded "why" bullets, and copy-paste "next" actions. When the run
// is blocked on missing evidence, every blocker is named at once; partial
// honesty about what is missing beats a confident guess.
package decision

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/scope"
)

// Blocker tokens. A decision carries every blocker that applies, not just the
// first one hit.
const (
	BlockedNoIdentity   = "blocked_no_identity"
	BlockedNoScope      = "blocked_no_scope"
	BlockedNoK8sContext = "blocked_no_k8s_context"
	BlockedNoLogs       = "blocked_no_logs"
)

const (
	whyMin  = 6
	whyMax  = 10
	nextMin = 3
	nextMax = 7
)

// Builder assembles Decisions. It is stateless; a single instance serves all
// investigations.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

// Build derives the decision from the investigation and the scope verdict.
// The result always has 6-10 why bullets and 3-7 next actions.
func (b *Builder) Build(inv *models.Investigation, sc scope.Result) models.Decision {
	blockers := detect(inv, sc)

	d := models.Decision{
		ScopeLabel:     sc.Label,
		Discriminators: blockers,
	}

	if len(blockers) > 0 {
		d.Label = fmt.Sprintf("triage blocked for %s: missing %s", inv.Alert.Name, joinBlockers(blockers))
	} else if top, ok := inv.TopHypothesis(); ok {
		d.Label = fmt.Sprintf("%s: %s", inv.Alert.Name, top.Title)
		d.Discriminators = append(d.Discriminators, discriminatorFor(top))
	} else {
		d.Label = fmt.Sprintf("%s: no hypothesis survived triage", inv.Alert.Name)
		d.Discriminators = append(d.Discriminators,
			"confirm-or-refute: evidence reads healthy while the alert fires; compare the alert rule expression against live state")
	}

	d.Why = b.why(inv, sc, blockers)
	d.Next = b.next(inv, blockers)
	return d
}

// detect returns every blocker that applies, in a fixed order.
func detect(inv *models.Investigation, sc scope.Result) []string {
	var blockers []string
	if !inv.Target.Known() {
		blockers = append(blockers, BlockedNoIdentity)
	}
	if !sc.Known {
		blockers = append(blockers, BlockedNoScope)
	}
	if inv.Evidence.Cluster.State == models.SectionUnavailable {
		blockers = append(blockers, BlockedNoK8sContext)
	}
	if inv.Evidence.Logs.State == models.SectionUnavailable || inv.Evidence.Logs.Status == models.LogsUnavailable {
		blockers = append(blockers, BlockedNoLogs)
	}
	return blockers
}

func (b *Builder) why(inv *models.Investigation, sc scope.Result, blockers []string) []string {
	var why []string

	why = append(why, fmt.Sprintf("alert %s is %s for %s", inv.Alert.Name, inv.Alert.State, inv.Target.Display()))
	if sc.Known {
		why = append(why, fmt.Sprintf("blast radius is %s (%d firing instances)", sc.Label, sc.Count))
	} else {
		why = append(why, "blast radius could not be measured; the scope query failed or returned nothing")
	}

	for _, blocker := range blockers {
		why = append(why, blockerWhy[blocker])
	}

	for i, h := range inv.Hypotheses {
		if i >= 3 || len(why) >= whyMax-1 {
			break
		}
		why = append(why, fmt.Sprintf("hypothesis %s (%d%%): %s", h.ID, h.Confidence, firstOr(h.Evidence, h.Title)))
	}

	if inv.Evidence.Logs.State == models.SectionPresent && inv.Evidence.Logs.Status == models.LogsEmpty {
		why = append(why, fmt.Sprintf("log query against %s returned no lines for the window", inv.Evidence.Logs.Backend))
	}
	if sc.Flapping {
		why = append(why, fmt.Sprintf("alert flapped %.1f times per hour, above the noise cutoff", sc.FlapPerHour))
	}
	if len(inv.Errors) > 0 && len(why) < whyMax {
		why = append(why, fmt.Sprintf("%d collection errors were recorded; see the error list for stages affected", len(inv.Errors)))
	}

	for len(why) < whyMin {
		why = append(why, padWhy(inv, len(why)))
	}
	if len(why) > whyMax {
		why = why[:whyMax]
	}
	return why
}

func (b *Builder) next(inv *models.Investigation, blockers []string) []string {
	var next []string

	// Unblocking commands come first; each blocker has a metrics-query-first
	// lookup with a cluster-command fallback.
	for _, blocker := range blockers {
		next = append(next, unblockCommand(blocker, inv))
	}

	for _, h := range inv.Hypotheses {
		for _, t := range h.NextTests {
			if len(next) >= nextMax {
				break
			}
			if !contains(next, t) {
				next = append(next, t)
			}
		}
	}

	for len(next) < nextMin {
		next = append(next, padNext(inv, len(next)))
	}
	if len(next) > nextMax {
		next = next[:nextMax]
	}
	return next
}

var blockerWhy = map[string]string{
	BlockedNoIdentity:   "target identity could not be resolved from the alert labels",
	BlockedNoScope:      "instance count is unknown; impact bonuses for blast radius are withheld",
	BlockedNoK8sContext: "cluster state was unavailable; pod status and events are missing",
	BlockedNoLogs:       "logs were unavailable; error signatures could not be checked",
}

func unblockCommand(blocker string, inv *models.Investigation) string {
	switch blocker {
	case BlockedNoIdentity:
		return fmt.Sprintf("inspect the raw labels of %s and map one of pod/workload/service/instance manually", inv.Alert.Name)
	case BlockedNoScope:
		return fmt.Sprintf("count firing instances directly: count(ALERTS{alertname=%q, alertstate=\"firing\"})", inv.Alert.Name)
	case BlockedNoK8sContext:
		if inv.Target.Namespace != "" {
			return fmt.Sprintf("kubectl -n %s get pods -o wide", inv.Target.Namespace)
		}
		return "kubectl get pods -A | grep -v Running"
	case BlockedNoLogs:
		if inv.Target.Pod != "" {
			return fmt.Sprintf("kubectl -n %s logs %s --tail=200", inv.Target.Namespace, inv.Target.Pod)
		}
		return "query the log backend directly for the target over the alert window"
	default:
		return "re-run the investigation once collaborators recover"
	}
}

func discriminatorFor(h models.Hypothesis) string {
	if len(h.NextTests) > 0 {
		return "confirm-or-refute: " + h.NextTests[0]
	}
	return "confirm-or-refute: " + h.Title
}

// padWhy keeps the bullet count in range when evidence is thin; padding still
// states facts, never filler.
func padWhy(inv *models.Investigation, n int) string {
	pads := []string{
		fmt.Sprintf("evidence window is %s ending at alert start", inv.Window.Label),
		fmt.Sprintf("alert family resolved to %s", inv.Family),
		fmt.Sprintf("%d hypotheses survived ranking", len(inv.Hypotheses)),
		fmt.Sprintf("alert fingerprint is %s", orEmpty(inv.Alert.Fingerprint, "absent")),
	}
	return pads[n%len(pads)]
}

func padNext(inv *models.Investigation, n int) string {
	pads := []string{
		fmt.Sprintf("open the alert rule via its generator URL: %s", orEmpty(inv.Alert.GeneratorURL, "(none recorded)")),
		fmt.Sprintf("review recent changes to %s around %s", inv.Target.Display(), inv.Window.Start.Format("15:04 MST")),
		"check the on-call runbook annotation on the alert, if any",
	}
	return pads[n%len(pads)]
}

func joinBlockers(blockers []string) string {
	out := ""
	for i, b := range blockers {
		if i > 0 {
			out += ", "
		}
		out += b
	}
	return out
}

func firstOr(ss []string, fallback string) string {
	if len(ss) > 0 {
		return ss[0]
	}
	return fallback
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func orEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
