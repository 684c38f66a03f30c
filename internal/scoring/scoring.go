// Package scoring turns evidence into the impact/confidence/noise triple and
// classifies the investigation. Every adjustment leaves a reason code behind so
// a score is auditable without re-running the pipeline.
package scoring

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/scope"
)

// Scorer computes scores and verdicts from per-family profiles.
type Scorer struct {
	cfg *config.Config
}

func NewScorer(cfg *config.Config) *Scorer { return &Scorer{cfg: cfg} }

// Blast-radius bonuses added to the family base impact.
var scopeBonus = map[string]int{
	scope.LabelSingle:     10,
	scope.LabelSmall:      20,
	scope.LabelMulti:      30,
	scope.LabelBroad:      40,
	scope.LabelWidespread: 50,
	scope.LabelMassive:    60,
}

// severityBonus maps the alert's own severity label to an impact adjustment.
var severityBonus = map[string]int{
	"critical": 15,
	"page":     15,
	"warning":  10,
	"info":     0,
}

// Score computes the triple and writes it onto the investigation.
func (s *Scorer) Score(inv *models.Investigation, sc scope.Result) {
	profile := s.cfg.ProfileFor(inv.Family)

	var reasons []models.ReasonCode

	impact := profile.BaseImpact
	if sc.Known {
		impact += scopeBonus[sc.Label]
	} else {
		reasons = append(reasons, models.ReasonScopeQueryFailed)
	}
	impact += severityBonus[inv.Alert.Label("severity")]

	confidence, capAt, confReasons := s.confidence(inv, sc, profile)
	reasons = append(reasons, confReasons...)

	noise := 10
	if sc.Flapping {
		noise += 40
		reasons = append(reasons, models.ReasonFlappingDetected)
	}
	if len(sc.HighCardinality) > 0 {
		noise += 20
		reasons = append(reasons, models.ReasonHighCardinalityLabels)
	}
	if inv.Family == models.FamilyMeta {
		noise = 100
		reasons = append(reasons, models.ReasonMetaAlert)
	}

	if capAt >= 0 && confidence > capAt {
		confidence = capAt
	}

	inv.Scores = models.Scores{
		Impact:     clamp(impact),
		Confidence: clamp(confidence),
		Noise:      clamp(noise),
		Reasons:    reasons,
	}
}

// confidence starts at 50 and moves with each evidence section's fate. The
// returned cap is -1 when no cap applies.
func (s *Scorer) confidence(inv *models.Investigation, sc scope.Result, profile config.Profile) (conf, capAt int, reasons []models.ReasonCode) {
	conf = 50
	capAt = -1

	switch inv.Evidence.Cluster.State {
	case models.SectionPresent:
		conf += 15
	case models.SectionUnavailable:
		conf -= 20
		reasons = append(reasons, models.ReasonNoClusterContext)
	}

	switch {
	case inv.Evidence.Logs.State == models.SectionPresent && inv.Evidence.Logs.Status == models.LogsOK:
		conf += 15
	case inv.Evidence.Logs.State == models.SectionUnavailable || inv.Evidence.Logs.Status == models.LogsUnavailable:
		conf -= 15
		reasons = append(reasons, models.ReasonLogsUnavailable)
	}

	switch inv.Evidence.Metrics.State {
	case models.SectionPresent:
		conf += 10
	case models.SectionUnavailable:
		conf -= 10
		reasons = append(reasons, models.ReasonMetricsUnavailable)
	}

	if top, ok := inv.TopHypothesis(); ok {
		bonus := top.Confidence / 5
		if bonus > 20 {
			bonus = 20
		}
		conf += bonus
	}

	if missing, code := corroborationMissing(inv, profile); missing {
		capAt = 35
		reasons = append(reasons, code)
	} else if profile.Corroboration != "" {
		reasons = append(reasons, models.ReasonEvidenceCorroborated)
	}

	if !inv.Target.Known() {
		conf -= 20
		reasons = append(reasons, models.ReasonIdentityUnknown)
	}
	if !sc.Known {
		conf -= 10
	}

	return conf, capAt, reasons
}

// corroborationMissing reports whether the family's required cluster
// corroboration signal is absent while cluster state was readable.
func corroborationMissing(inv *models.Investigation, profile config.Profile) (bool, models.ReasonCode) {
	if profile.Corroboration == "" {
		return false, ""
	}
	if inv.Evidence.Cluster.State != models.SectionPresent {
		// Unreadable cluster state is already penalised; absence of proof is
		// not proof of absence.
		return false, ""
	}
	if inv.Evidence.Cluster.LastTerminationReason == profile.Corroboration {
		return false, ""
	}
	return true, profile.MissingCorroborationReason()
}

// Classify applies the decision table in its documented order and writes the
// verdict. Contradiction checks run first so a recovered artifact is never
// reported as actionable.
func (s *Scorer) Classify(inv *models.Investigation) {
	contradicted := s.detectContradictions(inv)
	sc := inv.Scores

	var class models.Classification
	switch {
	case sc.Noise >= 70 || inv.Family == models.FamilyMeta:
		class = models.ClassNoisy
	case contradicted:
		class = models.ClassArtifactRecovered
	case sc.Confidence < 25 || s.corroborationGap(inv):
		class = models.ClassArtifactLowConfidence
	case sc.Impact >= 70 && sc.Confidence >= 70:
		class = models.ClassActionable
	default:
		class = models.ClassInformational
	}

	driver := primaryDriver(inv, class)
	inv.Verdict = models.Verdict{
		Classification: class,
		PrimaryDriver:  driver,
		Narrative:      narrativeLine(inv, class, driver),
		Severity:       severityFor(sc.Impact),
	}
}

// corroborationGap reports whether this family's configured corroboration
// reason code was recorded during scoring.
func (s *Scorer) corroborationGap(inv *models.Investigation) bool {
	profile := s.cfg.ProfileFor(inv.Family)
	if profile.Corroboration == "" {
		return false
	}
	return hasReason(inv.Scores.Reasons, profile.MissingCorroborationReason())
}

// narrativeLine is the one-sentence verdict summary: classification, driver,
// and blast radius, in a form that pastes cleanly into an incident channel.
func narrativeLine(inv *models.Investigation, class models.Classification, driver string) string {
	scopeLabel := inv.Decision.ScopeLabel
	if scopeLabel == "" {
		scopeLabel = scope.LabelUnknown
	}
	return fmt.Sprintf("%s: %s on %s (blast radius %s)", class, driver, inv.Target.Display(), scopeLabel)
}

// detectContradictions looks for evidence that the alerted condition no longer
// holds and appends the matching reason codes.
func (s *Scorer) detectContradictions(inv *models.Investigation) bool {
	found := false

	if inv.Alert.State == models.AlertResolved {
		inv.Scores.Reasons = append(inv.Scores.Reasons, models.ReasonAlertResolvedUpstream)
		found = true
	}

	switch inv.Family {
	case models.FamilyTargetDown:
		if up, ok := inv.Evidence.Metrics.Signal("up"); ok && up >= 1 {
			inv.Scores.Reasons = append(inv.Scores.Reasons, models.ReasonTargetDownContradictionUp)
			found = true
		}
	case models.FamilyRolloutStuck:
		if inv.Evidence.Cluster.State == models.SectionPresent && inv.Evidence.Cluster.RolloutStatus == "complete" {
			inv.Scores.Reasons = append(inv.Scores.Reasons, models.ReasonRolloutContradictionHealthy)
			found = true
		}
	}

	return found
}

func primaryDriver(inv *models.Investigation, class models.Classification) string {
	switch class {
	case models.ClassNoisy:
		if inv.Family == models.FamilyMeta {
			return "meta alert"
		}
		return "noise score"
	case models.ClassArtifactRecovered:
		return "condition no longer observable"
	case models.ClassArtifactLowConfidence:
		return "insufficient corroborating evidence"
	}
	if top, ok := inv.TopHypothesis(); ok {
		return top.Title
	}
	return "no surviving hypothesis"
}

func severityFor(impact int) models.Severity {
	switch {
	case impact >= 85:
		return models.SeverityCritical
	case impact >= 70:
		return models.SeverityHigh
	case impact >= 40:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func hasReason(reasons []models.ReasonCode, code models.ReasonCode) bool {
	for _, r := range reasons {
		if r == code {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
