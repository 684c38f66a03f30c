package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/services"
)

// maxAttempts bounds redelivery; after this many tries the alert is dropped
// with a log line rather than poisoning the queue.
const maxAttempts = 3

// Processor is the work each delivery receives; satisfied by
// services.TriageService.
type Processor interface {
	Process(ctx context.Context, alert models.Alert) (services.Outcome, error)
}

// Pool runs a fixed number of workers against the queue. Each worker extends
// its delivery claim on a heartbeat while the pipeline runs.
type Pool struct {
	logger    *slog.Logger
	queue     *Queue
	processor Processor
	count     int
	heartbeat time.Duration
}

func NewPool(logger *slog.Logger, queue *Queue, processor Processor, count int, heartbeat time.Duration) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if count <= 0 {
		count = 4
	}
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Pool{
		logger:    logger,
		queue:     queue,
		processor: processor,
		count:     count,
		heartbeat: heartbeat,
	}
}

// Run blocks until the context is cancelled or the queue closes, then waits
// for in-flight work to finish.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.count; i++ {
		worker := i
		g.Go(func() error {
			return p.loop(ctx, worker)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (p *Pool) loop(ctx context.Context, worker int) error {
	log := p.logger.With(slog.Int("worker", worker))
	for {
		delivery, err := p.queue.Next(ctx)
		if err != nil {
			return err
		}
		p.handle(ctx, log, delivery)
	}
}

func (p *Pool) handle(ctx context.Context, log *slog.Logger, delivery *Delivery) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(p.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				delivery.Extend()
			}
		}
	}()
	defer close(done)

	outcome, err := p.processor.Process(ctx, delivery.Alert)
	if err == nil {
		delivery.Ack()
		if outcome.Investigation != nil {
			log.Debug("alert processed",
				slog.String("alert", delivery.Alert.Name),
				slog.String("classification", string(outcome.Investigation.Verdict.Classification)),
				slog.Bool("stored", outcome.Stored))
		}
		return
	}

	if delivery.Attempt >= maxAttempts {
		log.Error("alert dropped after repeated failures",
			slog.String("alert", delivery.Alert.Name),
			slog.Int("attempts", delivery.Attempt),
			slog.Any("error", err))
		delivery.Ack()
		return
	}

	log.Warn("alert processing failed, requeueing",
		slog.String("alert", delivery.Alert.Name),
		slog.Int("attempt", delivery.Attempt),
		slog.Any("error", err))
	delivery.Nack()
}
