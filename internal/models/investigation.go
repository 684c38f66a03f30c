package models

import (
	"fmt"
	"time"
)

// ErrorKind classifies a per-investigation error entry.
type ErrorKind string

const (
	ErrKindCollection ErrorKind = "collection"
	ErrKindValidation ErrorKind = "validation"
	ErrKindExternal   ErrorKind = "external_service"
)

// InvestigationError is one appended entry in the investigation error list.
// Collaborator failures are recorded here instead of aborting the pipeline.
type InvestigationError struct {
	Stage   string
	Kind    ErrorKind
	Message string
}

// Investigation is the single source of truth: every pipeline stage reads and
// mutates this one aggregate. It is created once per alert instance and owned
// exclusively by the worker executing the pipeline.
type Investigation struct {
	ID          string
	Alert       Alert
	Family      Family
	Window      TimeWindow
	Target      TargetRef
	Evidence    Evidence
	Hypotheses  []Hypothesis
	Decision    Decision
	Enrichment  Enrichment
	Scores      Scores
	Verdict     Verdict
	Narrative   string
	Errors      []InvestigationError
	CreatedAt   time.Time
	CompletedAt time.Time
}

// AddError appends a structured error entry; the list is append-only.
func (inv *Investigation) AddError(stage string, kind ErrorKind, msg string) {
	inv.Errors = append(inv.Errors, InvestigationError{Stage: stage, Kind: kind, Message: msg})
}

// DedupeKey is the content-addressable idempotency key used by the persistence
// collaborator: identity + family + time bucket.
func (inv *Investigation) DedupeKey(bucket time.Duration) string {
	if bucket <= 0 {
		bucket = 15 * time.Minute
	}
	identity := inv.Alert.Fingerprint
	if identity == "" {
		identity = inv.Alert.Name + "/" + inv.Target.Display()
	}
	slot := inv.Alert.StartsAt.UTC().Truncate(bucket).Unix()
	return fmt.Sprintf("%s:%s:%d", identity, inv.Family, slot)
}

// TopHypothesis returns the highest ranked hypothesis, if any.
func (inv *Investigation) TopHypothesis() (Hypothesis, bool) {
	if len(inv.Hypotheses) == 0 {
		return Hypothesis{}, false
	}
	return inv.Hypotheses[0], true
}
