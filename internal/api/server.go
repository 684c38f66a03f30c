package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tarkyaio/tarka/internal/config"
)

// Server is the main HTTP listener: ingest plus read API.
type Server struct {
	cfg  config.ServerConfig
	http *http.Server
}

// NewServer builds the router and binds it to the configured address.
func NewServer(cfg config.ServerConfig, handler *Handler) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/alerts", handler.Ingest)
		r.Get("/stats", handler.GetStats)
		r.Route("/investigations", func(r chi.Router) {
			r.Get("/", handler.ListInvestigations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.GetInvestigation)
				r.Get("/report", handler.GetReport)
				r.Get("/similar", handler.GetSimilar)
				r.Get("/feedback", handler.ListFeedback)
				r.Post("/feedback", handler.PostFeedback)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Address,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	grace := s.cfg.GracefulTimeout
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// NewMetricsServer exposes the Prometheus registry on its own listener so
// scrapes never contend with ingest traffic.
func NewMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
