package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tarkyaio/tarka/internal/cache"
	"github.com/tarkyaio/tarka/internal/collab"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/diagnose"
	"github.com/tarkyaio/tarka/internal/engine"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
)

func newTestService(t *testing.T) *TriageService {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}

	stub := collab.HealthyStub(collab.EvidenceRequest{})
	collector := evidence.NewCollector(nil, stub, stub, stub, stub, time.Second)
	pipeline := engine.NewPipeline(nil, cfg, collector, diagnose.NewRegistry(nil), nil)

	st, err := store.Open(filepath.Join(t.TempDir(), "tarka.db"), 15*time.Minute)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	deduper := cache.NewDeduper(cache.NewMemoryProvider(64, time.Minute), time.Minute)
	return NewTriageService(nil, pipeline, deduper, st, 15*time.Minute)
}

func processedAlert(fingerprint string) models.Alert {
	return models.Alert{
		Name:        "KubePodCrashLooping",
		State:       models.AlertFiring,
		Fingerprint: fingerprint,
		StartsAt:    time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		Labels:      map[string]string{"namespace": "shop", "pod": "web-1"},
	}
}

func TestProcessStoresInvestigation(t *testing.T) {
	svc := newTestService(t)

	out, err := svc.Process(context.Background(), processedAlert("fp-1"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Suppressed || !out.Stored || out.Investigation == nil {
		t.Fatalf("outcome = %+v", out)
	}

	rec, err := svc.store.Get(context.Background(), out.Investigation.ID)
	if err != nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if rec.AlertName != "KubePodCrashLooping" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Snapshot) == 0 || rec.Report == "" {
		t.Errorf("snapshot/report not persisted")
	}
}

func TestProcessSuppressesDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Process(ctx, processedAlert("fp-dup"))
	if err != nil || first.Suppressed {
		t.Fatalf("first = (%+v, %v)", first, err)
	}

	second, err := svc.Process(ctx, processedAlert("fp-dup"))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !second.Suppressed {
		t.Fatalf("duplicate not suppressed: %+v", second)
	}
	if second.Investigation != nil {
		t.Errorf("suppressed duplicate still ran the pipeline")
	}
}

func TestProcessDistinctAlertsBothStored(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Process(ctx, processedAlert("fp-a"))
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	b, err := svc.Process(ctx, processedAlert("fp-b"))
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	if !a.Stored || !b.Stored {
		t.Fatalf("outcomes = %+v, %+v", a, b)
	}

	// The second run of the same alert+target cites the first in its report.
	rec, err := svc.store.Get(ctx, b.Investigation.ID)
	if err != nil {
		t.Fatalf("get second record: %v", err)
	}
	if !strings.Contains(rec.Report, "## Seen before") {
		t.Errorf("repeat case report lacks recall section:\n%s", rec.Report)
	}
}
