package models

// Severity captures impact levels on the final verdict.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ActionProposal is a policy-gated remediation suggestion. It is pure data;
// execution is an external, human-approved workflow.
type ActionProposal struct {
	Title   string
	Command string
	Policy  string
}

// Hypothesis is a ranked, evidence-cited candidate explanation. Hypotheses are
// produced once and never mutated.
type Hypothesis struct {
	ID         string
	Title      string
	Confidence int
	Evidence   []string
	NextTests  []string
	Supports   []string
	Counters   []string
	Proposals  []ActionProposal
}

// Decision is the family-agnostic triage block: a one-line label, 6-10 "why"
// bullets, and 3-7 copy-paste "next" actions. It may carry several
// simultaneous discriminators and never hides one behind another.
type Decision struct {
	Label          string
	Why            []string
	Next           []string
	Discriminators []string
	ScopeLabel     string
}

// Enrichment refines a Decision for one alert family. It is additive only: the
// base Decision's facts must remain asserted after it is applied.
type Enrichment struct {
	Family         Family
	Why            []string
	Next           []string
	Discriminators []string
}

// ReasonCode is a closed-vocabulary audit token attached to Scores.
type ReasonCode string

const (
	ReasonOOMCorroborationMissing     ReasonCode = "OOM_CORROBORATION_MISSING"
	ReasonRolloutContradictionHealthy ReasonCode = "ROLLOUT_CONTRADICTION_HEALTHY_STATUS"
	ReasonTargetDownContradictionUp   ReasonCode = "TARGET_DOWN_CONTRADICTION_UP"
	ReasonAlertResolvedUpstream       ReasonCode = "ALERT_RESOLVED_UPSTREAM"
	ReasonScopeQueryFailed            ReasonCode = "SCOPE_QUERY_FAILED"
	ReasonLogsUnavailable             ReasonCode = "LOGS_UNAVAILABLE"
	ReasonNoClusterContext            ReasonCode = "NO_K8S_CONTEXT"
	ReasonIdentityUnknown             ReasonCode = "IDENTITY_UNKNOWN"
	ReasonFlappingDetected            ReasonCode = "FLAPPING_DETECTED"
	ReasonHighCardinalityLabels       ReasonCode = "HIGH_CARDINALITY_LABELS"
	ReasonMetaAlert                   ReasonCode = "META_ALERT"
	ReasonLogSignatureMatch           ReasonCode = "LOG_ERROR_SIGNATURE_MATCH"
	ReasonMetricsUnavailable          ReasonCode = "METRICS_UNAVAILABLE"
	ReasonEvidenceCorroborated        ReasonCode = "EVIDENCE_CORROBORATED"
)

// Scores is the impact/confidence/noise triple with its ordered audit trail.
type Scores struct {
	Impact     int
	Confidence int
	Noise      int
	Reasons    []ReasonCode
}

// Classification is the final triage category. The artifact outcome is always
// disambiguated; a bare "artifact" value is a contract violation.
type Classification string

const (
	ClassActionable            Classification = "actionable"
	ClassInformational         Classification = "informational"
	ClassNoisy                 Classification = "noisy"
	ClassArtifactRecovered     Classification = "artifact_recovered"
	ClassArtifactLowConfidence Classification = "artifact_low_confidence"
)

// Verdict is the classified outcome handed to responders.
type Verdict struct {
	Classification Classification
	PrimaryDriver  string
	Narrative      string
	Severity       Severity
}
