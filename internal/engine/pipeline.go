// Package engine orchestrates one investigation end to end: skeleton, evidence
// collection, diagnosis, decision, enrichment, scoring, classification, and the
// optional narrative. The pipeline degrades per stage and always returns a
// classified investigation; "we could not find out" is a valid result.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tarkyaio/tarka/internal/collab"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/decision"
	"github.com/tarkyaio/tarka/internal/diagnose"
	"github.com/tarkyaio/tarka/internal/enrich"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/render"
	"github.com/tarkyaio/tarka/internal/resolve"
	"github.com/tarkyaio/tarka/internal/scope"
	"github.com/tarkyaio/tarka/internal/scoring"
)

// Pipeline runs investigations. It is safe for concurrent use; each call owns
// its Investigation exclusively.
type Pipeline struct {
	logger      *slog.Logger
	window      time.Duration
	familyTable map[string]models.Family
	overrides   []resolve.Override
	collector   *evidence.Collector
	registry    *diagnose.Registry
	builder     *decision.Builder
	scorer      *scoring.Scorer
	narrator    collab.Narrator
	budget      time.Duration
}

// NewPipeline wires the pipeline stages. narrator may be nil.
func NewPipeline(logger *slog.Logger, cfg *config.Config, collector *evidence.Collector, registry *diagnose.Registry, narrator collab.Narrator) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	overrides := make([]resolve.Override, 0, len(cfg.Triage.Overrides))
	for _, ov := range cfg.Triage.Overrides {
		overrides = append(overrides, resolve.Override{
			Family:     models.Family(ov.Family),
			Misleading: ov.Misleading,
			Alternate:  ov.Alternate,
		})
	}

	return &Pipeline{
		logger:      logger,
		window:      cfg.Triage.Window,
		familyTable: cfg.FamilyTable(),
		overrides:   overrides,
		collector:   collector,
		registry:    registry,
		builder:     decision.NewBuilder(),
		scorer:      scoring.NewScorer(cfg),
		narrator:    narrator,
		budget:      cfg.Narrator.Budget,
	}
}

// Investigate runs the full pipeline for one alert instance.
func (p *Pipeline) Investigate(ctx context.Context, alert models.Alert) *models.Investigation {
	inv := p.skeleton(alert)

	p.logger.Info("investigation started",
		slog.String("investigation", inv.ID),
		slog.String("alert", alert.Name),
		slog.String("family", string(inv.Family)),
		slog.String("target", inv.Target.Display()))

	if p.collector != nil {
		p.collector.Collect(ctx, inv)
	}
	p.registry.Run(ctx, inv)

	sc := scope.Analyze(inv.Evidence.Noise)
	inv.Decision = p.builder.Build(inv, sc)
	enrich.Apply(inv)

	p.scorer.Score(inv, sc)
	p.scorer.Classify(inv)

	p.narrate(ctx, inv)

	inv.CompletedAt = time.Now().UTC()

	p.logger.Info("investigation completed",
		slog.String("investigation", inv.ID),
		slog.String("classification", string(inv.Verdict.Classification)),
		slog.Int("impact", inv.Scores.Impact),
		slog.Int("confidence", inv.Scores.Confidence),
		slog.Int("noise", inv.Scores.Noise),
		slog.Duration("took", inv.CompletedAt.Sub(inv.CreatedAt)))

	return inv
}

// skeleton builds the investigation frame: identity, family, and window are
// fixed here and never change afterwards.
func (p *Pipeline) skeleton(alert models.Alert) *models.Investigation {
	family := models.FamilyOf(alert.Name, p.familyTable)
	target, sanitized := resolve.Resolve(alert, family, p.overrides)
	alert.Labels = sanitized

	return &models.Investigation{
		ID:        uuid.NewString(),
		Alert:     alert,
		Family:    family,
		Window:    models.WindowEnding(alert.StartsAt, p.window),
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
}

// narrate asks the optional language-model collaborator for prose. The
// narrative never changes scores or classification; a timeout just leaves the
// field empty.
func (p *Pipeline) narrate(ctx context.Context, inv *models.Investigation) {
	if p.narrator == nil {
		return
	}
	snapshot, err := render.Snapshot(inv)
	if err != nil {
		inv.AddError("narrator", models.ErrKindValidation, err.Error())
		return
	}

	budget := p.budget
	if budget <= 0 {
		budget = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	text, err := p.narrator.Narrate(ctx, snapshot)
	if err != nil {
		inv.AddError("narrator", models.ErrKindExternal, err.Error())
		p.logger.Warn("narrator degraded",
			slog.String("investigation", inv.ID),
			slog.Any("error", err))
		return
	}
	inv.Narrative = text
}
