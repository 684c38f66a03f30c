package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tarkyaio/tarka/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tarka.db"), 15*time.Minute)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func storedInvestigation(alertName, fingerprint string) *models.Investigation {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return &models.Investigation{
		ID: uuid.NewString(),
		Alert: models.Alert{
			Name:        alertName,
			Fingerprint: fingerprint,
			State:       models.AlertFiring,
			StartsAt:    now,
		},
		Family: models.FamilyCrashloop,
		Target: models.TargetRef{Type: models.TargetPod, Namespace: "shop", Pod: "web-1"},
		Scores: models.Scores{Impact: 75, Confidence: 80, Noise: 10},
		Verdict: models.Verdict{
			Classification: models.ClassActionable,
			Severity:       models.SeverityHigh,
		},
		CreatedAt:   now,
		CompletedAt: now.Add(2 * time.Second),
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inv := storedInvestigation("KubePodCrashLooping", "fp-1")

	stored, err := s.Save(ctx, inv, []byte(`{"id":"x"}`), "# report")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !stored {
		t.Fatalf("first save reported as duplicate")
	}

	rec, err := s.Get(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.AlertName != "KubePodCrashLooping" || rec.Classification != models.ClassActionable {
		t.Errorf("record = %+v", rec)
	}
	if rec.Impact != 75 || rec.Confidence != 80 || rec.Noise != 10 {
		t.Errorf("scores not persisted: %+v", rec)
	}
	if rec.Report != "# report" {
		t.Errorf("report = %q", rec.Report)
	}
}

func TestSaveSuppressesDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := storedInvestigation("KubePodCrashLooping", "fp-dup")
	second := storedInvestigation("KubePodCrashLooping", "fp-dup")

	if stored, err := s.Save(ctx, first, []byte("{}"), ""); err != nil || !stored {
		t.Fatalf("first save = (%v, %v)", stored, err)
	}
	stored, err := s.Save(ctx, second, []byte("{}"), "")
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if stored {
		t.Fatalf("same fingerprint in the same time bucket stored twice")
	}

	// The bucket boundary ends the suppression window.
	third := storedInvestigation("KubePodCrashLooping", "fp-dup")
	third.Alert.StartsAt = third.Alert.StartsAt.Add(20 * time.Minute)
	if stored, err := s.Save(ctx, third, []byte("{}"), ""); err != nil || !stored {
		t.Fatalf("next-bucket save = (%v, %v)", stored, err)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"Old", "Mid", "New"} {
		inv := storedInvestigation(name, name)
		inv.CreatedAt = inv.CreatedAt.Add(time.Duration(i) * time.Minute)
		if _, err := s.Save(ctx, inv, []byte("{}"), ""); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	recs, err := s.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].AlertName != "New" || recs[2].AlertName != "Old" {
		t.Errorf("order = [%s %s %s]", recs[0].AlertName, recs[1].AlertName, recs[2].AlertName)
	}
}

func TestSimilarCases(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	subject := storedInvestigation("KubePodCrashLooping", "fp-a")
	sameAlert := storedInvestigation("KubePodCrashLooping", "fp-b")
	unrelated := storedInvestigation("TargetDown", "fp-c")
	unrelated.Target = models.TargetRef{Type: models.TargetNode, Instance: "node-9:9100"}

	for _, inv := range []*models.Investigation{subject, sameAlert, unrelated} {
		if _, err := s.Save(ctx, inv, []byte("{}"), ""); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	recs, err := s.SimilarCases(ctx, subject.Alert.Name, subject.Target.Display(), subject.ID, 5)
	if err != nil {
		t.Fatalf("similar cases: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d similar cases, want 1: %+v", len(recs), recs)
	}
	if recs[0].Fingerprint != "fp-b" {
		t.Errorf("similar case = %+v", recs[0])
	}
}

func TestFeedbackRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inv := storedInvestigation("KubePodCrashLooping", "fp-fb")
	if _, err := s.Save(ctx, inv, []byte("{}"), ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	fb, err := s.AddFeedback(ctx, inv.ID, "correct", "nailed it")
	if err != nil {
		t.Fatalf("add feedback: %v", err)
	}
	if fb.ID == "" || fb.Verdict != "correct" {
		t.Errorf("feedback = %+v", fb)
	}

	list, err := s.ListFeedback(ctx, inv.ID)
	if err != nil {
		t.Fatalf("list feedback: %v", err)
	}
	if len(list) != 1 || list[0].Comment != "nailed it" {
		t.Errorf("feedback list = %+v", list)
	}
}

func TestFeedbackRequiresInvestigation(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AddFeedback(context.Background(), "missing", "correct", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
