package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tarkyaio/tarka/internal/collab"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

// Collector fans out to the four evidence collaborators concurrently, each
// under its own timeout. A slow or failing collaborator degrades only its own
// sub-record; the pipeline is never aborted from here.
type Collector struct {
	logger  *slog.Logger
	cluster collab.ClusterStateClient
	metrics collab.MetricsClient
	logs    collab.LogsClient
	scope   collab.ScopeClient
	timeout time.Duration
}

// NewCollector wires the collaborators. Any client may be nil; its sub-record
// is then recorded as unavailable.
func NewCollector(logger *slog.Logger, cluster collab.ClusterStateClient, metrics collab.MetricsClient, logs collab.LogsClient, scope collab.ScopeClient, timeout time.Duration) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Collector{
		logger:  logger,
		cluster: cluster,
		metrics: metrics,
		logs:    logs,
		scope:   scope,
		timeout: timeout,
	}
}

// Collect gathers all evidence for the investigation. Sub-record writes are
// disjoint per collaborator; the shared error list is guarded here.
func (c *Collector) Collect(ctx context.Context, inv *models.Investigation) {
	req := collab.EvidenceRequest{
		Alert:  inv.Alert,
		Family: inv.Family,
		Target: inv.Target,
		Window: inv.Window,
	}

	var mu sync.Mutex
	fail := func(stage string, err error) {
		mu.Lock()
		defer mu.Unlock()
		kind := models.ErrKindCollection
		if utils.KindOf(err) == utils.KindExternal {
			kind = models.ErrKindExternal
		}
		inv.AddError(stage, kind, err.Error())
		c.logger.Warn("evidence collection degraded",
			slog.String("stage", stage),
			slog.String("investigation", inv.ID),
			slog.Any("error", err))
	}

	g := new(errgroup.Group)

	g.Go(func() error {
		ev, err := c.fetchCluster(ctx, req)
		if err != nil {
			fail("cluster_state", err)
		}
		mu.Lock()
		MergeCluster(inv, ev)
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		ev, err := c.fetchMetrics(ctx, req)
		if err != nil {
			fail("metrics", err)
		}
		mu.Lock()
		MergeMetrics(inv, ev)
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		ev, err := c.fetchLogs(ctx, req)
		if err != nil {
			fail("logs", err)
		}
		mu.Lock()
		MergeLogs(inv, ev)
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		ev, err := c.fetchScope(ctx, req)
		if err != nil {
			fail("scope", err)
		}
		mu.Lock()
		MergeNoise(inv, ev)
		mu.Unlock()
		return nil
	})

	// Goroutines above never return errors; Wait only joins them.
	_ = g.Wait()
}

func (c *Collector) fetchCluster(ctx context.Context, req collab.EvidenceRequest) (ev models.ClusterStateEvidence, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev = models.ClusterStateEvidence{State: models.SectionUnavailable}
			err = fmt.Errorf("cluster-state collaborator panicked: %v", r)
		}
	}()
	if c.cluster == nil {
		return models.ClusterStateEvidence{State: models.SectionUnavailable}, utils.CollectionError("cluster_state", "client not configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ev, err = c.cluster.FetchClusterState(ctx, req)
	if err != nil {
		ev.State = models.SectionUnavailable
	}
	return ev, err
}

func (c *Collector) fetchMetrics(ctx context.Context, req collab.EvidenceRequest) (ev models.MetricsEvidence, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev = models.MetricsEvidence{State: models.SectionUnavailable}
			err = fmt.Errorf("metrics collaborator panicked: %v", r)
		}
	}()
	if c.metrics == nil {
		return models.MetricsEvidence{State: models.SectionUnavailable}, utils.CollectionError("metrics", "client not configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ev, err = c.metrics.FetchMetrics(ctx, req)
	if err != nil {
		ev.State = models.SectionUnavailable
	}
	return ev, err
}

func (c *Collector) fetchLogs(ctx context.Context, req collab.EvidenceRequest) (ev models.LogsEvidence, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev = models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}
			err = fmt.Errorf("logs collaborator panicked: %v", r)
		}
	}()
	if c.logs == nil {
		return models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}, utils.CollectionError("logs", "client not configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ev, err = c.logs.FetchLogs(ctx, req)
	if err != nil {
		ev.State = models.SectionUnavailable
		ev.Status = models.LogsUnavailable
	}
	return ev, err
}

func (c *Collector) fetchScope(ctx context.Context, req collab.EvidenceRequest) (ev models.NoiseEvidence, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev = models.NoiseEvidence{State: models.SectionUnavailable}
			err = fmt.Errorf("scope collaborator panicked: %v", r)
		}
	}()
	if c.scope == nil {
		return models.NoiseEvidence{State: models.SectionUnavailable}, utils.CollectionError("scope", "client not configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ev, err = c.scope.FetchScope(ctx, req)
	if err != nil {
		ev.State = models.SectionUnavailable
	}
	return ev, err
}
