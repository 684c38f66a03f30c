// Package store persists finished investigations in SQLite. The dedupe key is
// enforced by a unique index so duplicate suppression survives restarts; the
// cache fast path in front of this is an optimization, not the authority.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tarkyaio/tarka/internal/models"
)

// Record is the persisted summary of one investigation.
type Record struct {
	ID             string
	DedupeKey      string
	AlertName      string
	Fingerprint    string
	Target         string
	Family         models.Family
	Classification models.Classification
	Severity       models.Severity
	Impact         int
	Confidence     int
	Noise          int
	Snapshot       []byte
	Report         string
	CreatedAt      time.Time
	CompletedAt    time.Time
}

// Feedback is a responder's verdict on a stored investigation, used to tune
// the scoring profiles offline.
type Feedback struct {
	ID              string
	InvestigationID string
	Verdict         string
	Comment         string
	CreatedAt       time.Time
}

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("store: not found")

// SQLiteStore implements persistence on a single SQLite file.
type SQLiteStore struct {
	db           *sql.DB
	dedupeBucket time.Duration
}

// Open opens (creating if needed) the database and runs migrations.
func Open(path string, dedupeBucket time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, dedupeBucket: dedupeBucket}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS investigations (
			id             TEXT PRIMARY KEY,
			dedupe_key     TEXT NOT NULL UNIQUE,
			alert_name     TEXT NOT NULL,
			fingerprint    TEXT NOT NULL DEFAULT '',
			target         TEXT NOT NULL DEFAULT '',
			family         TEXT NOT NULL,
			classification TEXT NOT NULL,
			severity       TEXT NOT NULL,
			impact         INTEGER NOT NULL,
			confidence     INTEGER NOT NULL,
			noise          INTEGER NOT NULL,
			snapshot       BLOB NOT NULL,
			report         TEXT NOT NULL,
			created_at     TIMESTAMP NOT NULL,
			completed_at   TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_investigations_alert
			ON investigations(alert_name, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_investigations_target
			ON investigations(target, created_at DESC);

		CREATE TABLE IF NOT EXISTS feedback (
			id               TEXT PRIMARY KEY,
			investigation_id TEXT NOT NULL REFERENCES investigations(id),
			verdict          TEXT NOT NULL,
			comment          TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMP NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save persists a finished investigation. It returns false when the dedupe key
// already exists; the caller counts that as a suppressed duplicate.
func (s *SQLiteStore) Save(ctx context.Context, inv *models.Investigation, snapshot []byte, report string) (bool, error) {
	query := `
		INSERT INTO investigations (id, dedupe_key, alert_name, fingerprint, target,
			family, classification, severity, impact, confidence, noise,
			snapshot, report, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedupe_key) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		inv.ID, inv.DedupeKey(s.dedupeBucket), inv.Alert.Name, inv.Alert.Fingerprint,
		inv.Target.Display(), string(inv.Family), string(inv.Verdict.Classification),
		string(inv.Verdict.Severity), inv.Scores.Impact, inv.Scores.Confidence,
		inv.Scores.Noise, snapshot, report, inv.CreatedAt.UTC(), inv.CompletedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("save investigation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save investigation: %w", err)
	}
	return n > 0, nil
}

// Get fetches one record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM investigations WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get investigation: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM investigations ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// SimilarCases returns past investigations for the same alert name or target,
// excluding the given id. It feeds the "seen before" section of reports.
func (s *SQLiteStore) SimilarCases(ctx context.Context, alertName, target, excludeID string, limit int) ([]*Record, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM investigations
		 WHERE (alert_name = ? OR (target != '' AND target = ?)) AND id != ?
		 ORDER BY created_at DESC LIMIT ?`,
		alertName, target, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar cases: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// AddFeedback records a responder verdict against a stored investigation.
func (s *SQLiteStore) AddFeedback(ctx context.Context, investigationID, verdict, comment string) (*Feedback, error) {
	if _, err := s.Get(ctx, investigationID); err != nil {
		return nil, err
	}
	fb := &Feedback{
		ID:              uuid.NewString(),
		InvestigationID: investigationID,
		Verdict:         verdict,
		Comment:         comment,
		CreatedAt:       time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO feedback (id, investigation_id, verdict, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		fb.ID, fb.InvestigationID, fb.Verdict, fb.Comment, fb.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add feedback: %w", err)
	}
	return fb, nil
}

// ListFeedback returns feedback entries for one investigation, oldest first.
func (s *SQLiteStore) ListFeedback(ctx context.Context, investigationID string) ([]*Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, investigation_id, verdict, comment, created_at FROM feedback WHERE investigation_id = ? ORDER BY created_at",
		investigationID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []*Feedback
	for rows.Next() {
		fb := &Feedback{}
		if err := rows.Scan(&fb.ID, &fb.InvestigationID, &fb.Verdict, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

const selectColumns = `SELECT id, dedupe_key, alert_name, fingerprint, target,
	family, classification, severity, impact, confidence, noise,
	snapshot, report, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	rec := &Record{}
	var family, class, severity string
	err := row.Scan(&rec.ID, &rec.DedupeKey, &rec.AlertName, &rec.Fingerprint,
		&rec.Target, &family, &class, &severity, &rec.Impact, &rec.Confidence,
		&rec.Noise, &rec.Snapshot, &rec.Report, &rec.CreatedAt, &rec.CompletedAt)
	if err != nil {
		return nil, err
	}
	rec.Family = models.Family(family)
	rec.Classification = models.Classification(class)
	rec.Severity = models.Severity(severity)
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investigation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
