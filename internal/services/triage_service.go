// Package services glues the pipeline to its collaborators: duplicate
// suppression in front, persistence and metrics behind.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tarkyaio/tarka/internal/cache"
	"github.com/tarkyaio/tarka/internal/engine"
	"github.com/tarkyaio/tarka/internal/metrics"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/render"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/utils"
)

// Outcome summarizes what happened to one delivered alert.
type Outcome struct {
	Investigation *models.Investigation
	Suppressed    bool
	Stored        bool
}

// TriageService runs the dedupe-investigate-persist flow for each alert.
type TriageService struct {
	logger       *slog.Logger
	pipeline     *engine.Pipeline
	deduper      *cache.Deduper
	store        *store.SQLiteStore
	dedupeBucket time.Duration
	latencies    *utils.LatencyTracker
}

func NewTriageService(logger *slog.Logger, pipeline *engine.Pipeline, deduper *cache.Deduper, st *store.SQLiteStore, dedupeBucket time.Duration) *TriageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriageService{
		logger:       logger,
		pipeline:     pipeline,
		deduper:      deduper,
		store:        st,
		dedupeBucket: dedupeBucket,
		latencies:    utils.NewLatencyTracker(1024),
	}
}

// Process handles one alert instance end to end. A suppressed duplicate
// returns Outcome.Suppressed without running the pipeline.
func (s *TriageService) Process(ctx context.Context, alert models.Alert) (Outcome, error) {
	key := dedupeKeyFor(alert, s.dedupeBucket)

	if s.deduper != nil {
		first, err := s.deduper.Claim(ctx, key)
		if err != nil {
			// Cache trouble is logged and ignored; the store settles duplicates.
			s.logger.Warn("dedupe cache degraded", slog.Any("error", err))
		}
		if !first {
			metrics.ObserveDedupeSuppressed()
			s.logger.Info("duplicate suppressed",
				slog.String("alert", alert.Name),
				slog.String("dedupe_key", key))
			return Outcome{Suppressed: true}, nil
		}
	}

	start := time.Now()
	inv := s.pipeline.Investigate(ctx, alert)
	duration := time.Since(start)

	s.latencies.Observe(duration)
	metrics.ObserveInvestigation(duration, metrics.OutcomeSuccess, string(inv.Verdict.Classification))
	for _, e := range inv.Errors {
		metrics.ObserveEvidenceError(e.Stage)
	}
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("investigation latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}

	stored, err := s.persist(ctx, inv)
	if err != nil {
		if s.deduper != nil {
			s.deduper.Release(ctx, key)
		}
		return Outcome{Investigation: inv}, err
	}
	if !stored {
		metrics.ObserveDedupeSuppressed()
	}
	return Outcome{Investigation: inv, Stored: stored}, nil
}

func (s *TriageService) persist(ctx context.Context, inv *models.Investigation) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	snapshot, err := render.Snapshot(inv)
	if err != nil {
		return false, fmt.Errorf("render snapshot: %w", err)
	}
	report := render.Report(inv) + s.seenBefore(ctx, inv)
	stored, err := s.store.Save(ctx, inv, snapshot, report)
	if err != nil {
		return false, fmt.Errorf("persist investigation: %w", err)
	}
	return stored, nil
}

// seenBefore renders the recall section from stored history. Lookup trouble
// just leaves the section off; the report is still complete without it.
func (s *TriageService) seenBefore(ctx context.Context, inv *models.Investigation) string {
	similar, err := s.store.SimilarCases(ctx, inv.Alert.Name, inv.Target.Display(), inv.ID, 3)
	if err != nil {
		s.logger.Warn("similar-case lookup degraded", slog.Any("error", err))
		return ""
	}
	if len(similar) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n## Seen before\n\n")
	for _, rec := range similar {
		fmt.Fprintf(&b, "- %s · %s · %s (impact %d, confidence %d)\n",
			rec.CreatedAt.UTC().Format("2006-01-02 15:04"), rec.Target, rec.Classification,
			rec.Impact, rec.Confidence)
	}
	return b.String()
}

// dedupeKeyFor mirrors Investigation.DedupeKey but is computable before the
// pipeline runs, so duplicates are suppressed without paying for evidence
// collection. Family is intentionally absent here; the same alert instance
// maps to one family anyway.
func dedupeKeyFor(alert models.Alert, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = 15 * time.Minute
	}
	identity := alert.Fingerprint
	if identity == "" {
		identity = alert.Name
	}
	slot := alert.StartsAt.UTC().Truncate(bucket).Unix()
	return fmt.Sprintf("%s:%d", identity, slot)
}
