package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tarkyaio/tarka/internal/api"
	"github.com/tarkyaio/tarka/internal/cache"
	"github.com/tarkyaio/tarka/internal/collab"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/diagnose"
	"github.com/tarkyaio/tarka/internal/engine"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/metrics"
	"github.com/tarkyaio/tarka/internal/services"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/utils"
	"github.com/tarkyaio/tarka/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage engine: ingest, workers, and read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting tarka", slog.String("address", cfg.Server.Address))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	cacheProvider, err := cache.FromConfig(cfg.Cache)
	if err != nil {
		logger.Warn("cache unavailable, falling back to memory", slog.Any("error", err))
		cacheProvider = cache.NewMemoryProvider(4096, cfg.Cache.DedupeTTL)
	}
	defer cacheProvider.Close()
	deduper := cache.NewDeduper(cacheProvider, cfg.Cache.DedupeTTL)

	st, err := store.Open(cfg.Store.Path, cfg.Store.DedupeBucket)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	pipeline := buildPipeline(logger, cfg)
	service := services.NewTriageService(logger, pipeline, deduper, st, cfg.Store.DedupeBucket)

	queue := worker.NewQueue(cfg.Workers.QueueSize, cfg.Workers.VisibilityTimeout)
	pool := worker.NewPool(logger, queue, service, cfg.Workers.Count, cfg.Workers.HeartbeatInterval)

	handler := api.NewHandler(logger, queue, st)
	server := api.NewServer(cfg.Server, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		metricsServer = api.NewMetricsServer(cfg.Server.MetricsAddress, registry)
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx)
	}()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server exited", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}
	queue.Close()
	if err := <-poolDone; err != nil {
		logger.Warn("worker pool exited", slog.Any("error", err))
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancel()
	}

	logger.Info("tarka stopped")
	return nil
}

// buildPipeline wires the evidence gateway, diagnostic modules, and optional
// narrator into an investigation pipeline.
func buildPipeline(logger *slog.Logger, cfg *config.Config) *engine.Pipeline {
	var (
		clusterClient collab.ClusterStateClient
		metricsClient collab.MetricsClient
		logsClient    collab.LogsClient
		scopeClient   collab.ScopeClient
	)
	if cfg.Gateway.BaseURL != "" {
		gw := collab.NewGatewayClient(
			cfg.Gateway.BaseURL,
			cfg.Gateway.ClusterPath,
			cfg.Gateway.MetricsPath,
			cfg.Gateway.LogsPath,
			cfg.Gateway.ScopePath,
			cfg.Gateway.Timeout,
		)
		clusterClient, metricsClient, logsClient, scopeClient = gw, gw, gw, gw
	} else {
		logger.Warn("no evidence gateway configured; investigations will run evidence-blind")
	}

	collector := evidence.NewCollector(logger, clusterClient, metricsClient, logsClient, scopeClient, cfg.Gateway.Timeout)
	modules := diagnose.NewRegistry(logger)

	var narrator collab.Narrator
	if cfg.Narrator.Enabled {
		narrator = collab.NewAnthropicNarrator(cfg.Narrator.Model, cfg.Narrator.MaxTokens, cfg.Narrator.Budget)
	}

	return engine.NewPipeline(logger, cfg, collector, modules, narrator)
}
