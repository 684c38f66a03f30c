package diagnose

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

type fakeModule struct {
	noCollect
	name string
	hyps []models.Hypothesis
	err  error
}

func (m *fakeModule) Name() string                          { return m.name }
func (m *fakeModule) Applicable(*models.Investigation) bool { return true }
func (m *fakeModule) Diagnose(*models.Investigation) ([]models.Hypothesis, error) {
	return m.hyps, m.err
}

type panickyModule struct {
	noCollect
	name string
}

func (m *panickyModule) Name() string                          { return m.name }
func (m *panickyModule) Applicable(*models.Investigation) bool { return true }
func (m *panickyModule) Diagnose(*models.Investigation) ([]models.Hypothesis, error) {
	panic("boom")
}

func newTestRegistry() *Registry {
	return &Registry{
		logger:   slog.Default(),
		byFamily: map[models.Family][]Module{},
		fallback: &GenericModule{},
	}
}

func testInvestigation(fam models.Family) *models.Investigation {
	return &models.Investigation{
		Alert:  models.Alert{Name: "TestAlert"},
		Family: fam,
		Target: models.TargetRef{Type: models.TargetPod, Namespace: "shop", Pod: "web-1"},
	}
}

func TestRunDeterministicOrdering(t *testing.T) {
	r := newTestRegistry()
	r.Register(models.FamilyCrashloop,
		&fakeModule{name: "a", hyps: []models.Hypothesis{
			{ID: "x/one", Confidence: 60},
			{ID: "x/two", Confidence: 60},
		}},
		&fakeModule{name: "b", hyps: []models.Hypothesis{
			{ID: "y/late", Confidence: 60},
			{ID: "y/high", Confidence: 90},
		}},
	)

	inv := testInvestigation(models.FamilyCrashloop)
	r.Run(context.Background(), inv)

	got := make([]string, 0, len(inv.Hypotheses))
	for _, h := range inv.Hypotheses {
		got = append(got, h.ID)
	}
	// 90 first; ties by registration order then id.
	want := []string{"y/high", "x/one", "x/two", "y/late"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRunDedupesById(t *testing.T) {
	r := newTestRegistry()
	r.Register(models.FamilyCrashloop,
		&fakeModule{name: "a", hyps: []models.Hypothesis{{ID: "dup", Confidence: 40, Title: "weak"}}},
		&fakeModule{name: "b", hyps: []models.Hypothesis{{ID: "dup", Confidence: 70, Title: "strong"}}},
	)

	inv := testInvestigation(models.FamilyCrashloop)
	r.Run(context.Background(), inv)

	if len(inv.Hypotheses) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(inv.Hypotheses))
	}
	if inv.Hypotheses[0].Confidence != 70 || inv.Hypotheses[0].Title != "strong" {
		t.Errorf("kept %+v, want the higher-confidence duplicate", inv.Hypotheses[0])
	}
}

func TestRunPanicIsolation(t *testing.T) {
	r := newTestRegistry()
	r.Register(models.FamilyCrashloop,
		&panickyModule{name: "bad"},
		&fakeModule{name: "good", hyps: []models.Hypothesis{{ID: "ok", Confidence: 50}}},
	)

	inv := testInvestigation(models.FamilyCrashloop)
	r.Run(context.Background(), inv)

	if len(inv.Hypotheses) != 1 || inv.Hypotheses[0].ID != "ok" {
		t.Fatalf("surviving module's output lost: %+v", inv.Hypotheses)
	}
	if len(inv.Errors) == 0 {
		t.Fatalf("panic left no error entry")
	}
}

func TestRunValidationErrorAbortsOnlyThatModule(t *testing.T) {
	r := newTestRegistry()
	r.Register(models.FamilyCrashloop,
		&fakeModule{name: "strict", err: utils.ValidationError("strict", "bad input", errors.New("nope"))},
		&fakeModule{name: "lenient", hyps: []models.Hypothesis{{ID: "ok", Confidence: 50}}},
	)

	inv := testInvestigation(models.FamilyCrashloop)
	r.Run(context.Background(), inv)

	if len(inv.Hypotheses) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(inv.Hypotheses))
	}
	found := false
	for _, e := range inv.Errors {
		if e.Kind == models.ErrKindValidation {
			found = true
		}
	}
	if !found {
		t.Errorf("validation error not recorded: %+v", inv.Errors)
	}
}

func TestRunFallbackWhenNothingApplies(t *testing.T) {
	r := NewRegistry(nil)
	inv := testInvestigation(models.FamilyMeta)
	r.Run(context.Background(), inv)

	if len(inv.Hypotheses) == 0 {
		t.Fatalf("fallback produced no hypotheses")
	}
	if inv.Hypotheses[0].ID != "generic/uncategorized" {
		t.Errorf("fallback hypothesis id = %s", inv.Hypotheses[0].ID)
	}
}

func TestConfidenceClamped(t *testing.T) {
	r := newTestRegistry()
	r.Register(models.FamilyCrashloop,
		&fakeModule{name: "wild", hyps: []models.Hypothesis{
			{ID: "over", Confidence: 250},
			{ID: "under", Confidence: -10},
		}},
	)

	inv := testInvestigation(models.FamilyCrashloop)
	r.Run(context.Background(), inv)

	for _, h := range inv.Hypotheses {
		if h.Confidence < 0 || h.Confidence > 100 {
			t.Errorf("hypothesis %s confidence %d out of range", h.ID, h.Confidence)
		}
	}
}
