// Package api exposes the HTTP surface: Alertmanager webhook ingest, stored
// investigation reads, and responder feedback.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tarkyaio/tarka/internal/history"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/worker"
)

// maxWebhookBody bounds webhook payloads; Alertmanager batches stay far below
// this.
const maxWebhookBody = 4 << 20

// InvestigationReader is the store surface the read endpoints need.
type InvestigationReader interface {
	Get(ctx context.Context, id string) (*store.Record, error)
	List(ctx context.Context, limit, offset int) ([]*store.Record, error)
	SimilarCases(ctx context.Context, alertName, target, excludeID string, limit int) ([]*store.Record, error)
	AddFeedback(ctx context.Context, investigationID, verdict, comment string) (*store.Feedback, error)
	ListFeedback(ctx context.Context, investigationID string) ([]*store.Feedback, error)
}

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	logger *slog.Logger
	queue  *worker.Queue
	reader InvestigationReader
}

func NewHandler(logger *slog.Logger, queue *worker.Queue, reader InvestigationReader) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, queue: queue, reader: reader}
}

// Ingest accepts an Alertmanager webhook batch and enqueues each alert for
// investigation. Partial acceptance is reported per batch, not per alert.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var msg models.WebhookMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err := dec.Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook payload: "+err.Error())
		return
	}
	if len(msg.Alerts) == 0 {
		writeError(w, http.StatusBadRequest, "webhook contains no alerts")
		return
	}

	accepted, dropped := 0, 0
	for _, wa := range msg.Alerts {
		alert := models.ParseAlert(wa)
		if alert.Name == "" {
			dropped++
			continue
		}
		if h.queue.Enqueue(alert) {
			accepted++
		} else {
			dropped++
		}
	}

	h.logger.Info("webhook received",
		slog.String("receiver", msg.Receiver),
		slog.Int("accepted", accepted),
		slog.Int("dropped", dropped))

	status := http.StatusAccepted
	if accepted == 0 {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, map[string]int{"accepted": accepted, "dropped": dropped})
}

// ListInvestigations returns recent records, newest first.
func (h *Handler) ListInvestigations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	records, err := h.reader.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list investigations failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"investigations": toSummaries(records)})
}

// GetInvestigation returns the stored deterministic snapshot.
func (h *Handler) GetInvestigation(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Snapshot)
}

// GetReport returns the markdown report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rec.Report))
}

// GetSimilar returns past investigations for the same alert or target.
func (h *Handler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	similar, err := h.reader.SimilarCases(r.Context(), rec.AlertName, rec.Target, rec.ID, queryInt(r, "limit", 5))
	if err != nil {
		h.logger.Error("similar cases failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "similar lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"similar": toSummaries(similar)})
}

type feedbackRequest struct {
	Verdict string `json:"verdict"`
	Comment string `json:"comment"`
}

var validVerdicts = map[string]bool{
	"correct": true, "wrong_classification": true, "wrong_hypothesis": true, "unhelpful": true,
}

// PostFeedback records a responder verdict for scoring calibration.
func (h *Handler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid feedback payload: "+err.Error())
		return
	}
	req.Verdict = strings.TrimSpace(req.Verdict)
	if !validVerdicts[req.Verdict] {
		writeError(w, http.StatusBadRequest, "verdict must be one of: correct, wrong_classification, wrong_hypothesis, unhelpful")
		return
	}

	fb, err := h.reader.AddFeedback(r.Context(), id, req.Verdict, req.Comment)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "investigation not found")
		return
	}
	if err != nil {
		h.logger.Error("add feedback failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "feedback failed")
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// ListFeedback returns feedback entries for one investigation.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.reader.ListFeedback(r.Context(), id)
	if err != nil {
		h.logger.Error("list feedback failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "feedback lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": entries})
}

// GetStats mines per-alert statistics from recent history.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	records, err := h.reader.List(r.Context(), queryInt(r, "window", 500), 0)
	if err != nil {
		h.logger.Error("stats mining failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": history.Mine(records)})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "id")
	rec, err := h.reader.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "investigation not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("get investigation failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return rec, true
}

// summary is the list-view projection of a stored record.
type summary struct {
	ID             string `json:"id"`
	AlertName      string `json:"alertName"`
	Target         string `json:"target"`
	Family         string `json:"family"`
	Classification string `json:"classification"`
	Severity       string `json:"severity"`
	Impact         int    `json:"impact"`
	Confidence     int    `json:"confidence"`
	Noise          int    `json:"noise"`
	CreatedAt      string `json:"createdAt"`
}

func toSummaries(records []*store.Record) []summary {
	out := make([]summary, 0, len(records))
	for _, rec := range records {
		out = append(out, summary{
			ID:             rec.ID,
			AlertName:      rec.AlertName,
			Target:         rec.Target,
			Family:         string(rec.Family),
			Classification: string(rec.Classification),
			Severity:       string(rec.Severity),
			Impact:         rec.Impact,
			Confidence:     rec.Confidence,
			Noise:          rec.Noise,
			CreatedAt:      rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
