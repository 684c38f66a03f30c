// Package worker provides the delivery contract between ingest and the
// pipeline: an at-least-once queue with visibility timeouts and a bounded
// worker pool that extends its claim with heartbeats while investigating.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tarkyaio/tarka/internal/metrics"
	"github.com/tarkyaio/tarka/internal/models"
)

// Delivery is one claimed alert. The holder must Ack on success, Nack to
// requeue, and Extend before the visibility deadline expires on long runs.
type Delivery struct {
	Alert    models.Alert
	Attempt  int
	q        *Queue
	id       uint64
	released bool
}

// Ack marks the delivery done. It is idempotent.
func (d *Delivery) Ack() { d.q.settle(d, true) }

// Nack returns the delivery to the queue for another attempt.
func (d *Delivery) Nack() { d.q.settle(d, false) }

// Extend pushes the visibility deadline out by the queue's timeout again.
func (d *Delivery) Extend() { d.q.extend(d) }

// ErrClosed is returned by Next after Close drains the queue.
var ErrClosed = errors.New("queue closed")

type pending struct {
	alert    models.Alert
	attempt  int
	deadline time.Time // zero when waiting, set while claimed
}

// Queue is an in-process at-least-once buffer. A claimed alert whose holder
// goes silent past the visibility timeout is redelivered to the next caller.
type Queue struct {
	mu         sync.Mutex
	cond       *sync.Cond
	waiting    []*pending
	inflight   map[uint64]*pending
	nextID     uint64
	capacity   int
	visibility time.Duration
	closed     bool
}

// NewQueue builds a queue holding at most capacity waiting alerts.
func NewQueue(capacity int, visibility time.Duration) *Queue {
	if capacity <= 0 {
		capacity = 256
	}
	if visibility <= 0 {
		visibility = 60 * time.Second
	}
	q := &Queue{
		inflight:   make(map[uint64]*pending),
		capacity:   capacity,
		visibility: visibility,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds an alert. It reports false when the queue is full or closed;
// the caller decides whether that is a 429 or a drop.
func (q *Queue) Enqueue(alert models.Alert) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.waiting) >= q.capacity {
		return false
	}
	q.waiting = append(q.waiting, &pending{alert: alert})
	metrics.SetQueueDepth(len(q.waiting))
	q.cond.Broadcast()
	return true
}

// Next blocks until an alert is available, a claim expires, or the context is
// done. Expired claims are redelivered with an incremented attempt count.
func (q *Queue) Next(ctx context.Context) (*Delivery, error) {
	// Wake the cond wait when the context is cancelled.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.reapExpiredLocked()
		if len(q.waiting) > 0 {
			p := q.waiting[0]
			q.waiting = q.waiting[1:]
			metrics.SetQueueDepth(len(q.waiting))

			q.nextID++
			id := q.nextID
			p.attempt++
			p.deadline = time.Now().Add(q.visibility)
			q.inflight[id] = p
			return &Delivery{Alert: p.alert, Attempt: p.attempt, q: q, id: id}, nil
		}
		if q.closed {
			return nil, ErrClosed
		}
		// Re-check expirations at least once per visibility interval.
		wake := time.AfterFunc(q.visibility, q.cond.Broadcast)
		q.cond.Wait()
		wake.Stop()
	}
}

// Close stops intake; Next returns ErrClosed once the backlog drains.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Depth returns the current waiting backlog.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

func (q *Queue) settle(d *Delivery, ack bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	p, ok := q.inflight[d.id]
	delete(q.inflight, d.id)
	if !ok || ack {
		return
	}
	p.deadline = time.Time{}
	q.waiting = append(q.waiting, p)
	metrics.SetQueueDepth(len(q.waiting))
	q.cond.Broadcast()
}

func (q *Queue) extend(d *Delivery) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if p, ok := q.inflight[d.id]; ok {
		p.deadline = time.Now().Add(q.visibility)
	}
}

// reapExpiredLocked requeues claims whose holders missed their heartbeat.
func (q *Queue) reapExpiredLocked() {
	now := time.Now()
	for id, p := range q.inflight {
		if !p.deadline.IsZero() && now.After(p.deadline) {
			delete(q.inflight, id)
			p.deadline = time.Time{}
			q.waiting = append(q.waiting, p)
		}
	}
	metrics.SetQueueDepth(len(q.waiting))
}
