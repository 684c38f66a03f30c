package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
)

func testAlert(name string) models.Alert {
	return models.Alert{Name: name, State: models.AlertFiring}
}

func TestEnqueueNextAck(t *testing.T) {
	q := NewQueue(8, time.Minute)
	if !q.Enqueue(testAlert("A")) {
		t.Fatalf("enqueue rejected")
	}

	d, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.Alert.Name != "A" || d.Attempt != 1 {
		t.Fatalf("delivery = %+v", d)
	}
	d.Ack()

	if q.Depth() != 0 {
		t.Errorf("depth = %d after ack", q.Depth())
	}
}

func TestNackRedelivers(t *testing.T) {
	q := NewQueue(8, time.Minute)
	q.Enqueue(testAlert("A"))

	d, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	d.Nack()

	redelivered, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("next after nack: %v", err)
	}
	if redelivered.Alert.Name != "A" {
		t.Fatalf("redelivered = %+v", redelivered)
	}
	if redelivered.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", redelivered.Attempt)
	}
	redelivered.Ack()
}

func TestSettleIsIdempotent(t *testing.T) {
	q := NewQueue(8, time.Minute)
	q.Enqueue(testAlert("A"))

	d, _ := q.Next(context.Background())
	d.Ack()
	d.Nack() // must not resurrect the delivery

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("acked delivery came back: %v", err)
	}
}

func TestVisibilityExpiryRedelivers(t *testing.T) {
	q := NewQueue(8, 20*time.Millisecond)
	q.Enqueue(testAlert("A"))

	d, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	_ = d // holder goes silent

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	redelivered, err := q.Next(ctx)
	if err != nil {
		t.Fatalf("expired claim not redelivered: %v", err)
	}
	if redelivered.Alert.Name != "A" || redelivered.Attempt != 2 {
		t.Fatalf("redelivered = %+v", redelivered)
	}
	redelivered.Ack()
}

func TestExtendKeepsClaim(t *testing.T) {
	q := NewQueue(8, 50*time.Millisecond)
	q.Enqueue(testAlert("A"))

	d, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}

	// Heartbeat past two would-be expirations.
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		d.Extend()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("extended claim redelivered: %v", err)
	}
	d.Ack()
}

func TestEnqueueFullQueue(t *testing.T) {
	q := NewQueue(2, time.Minute)
	if !q.Enqueue(testAlert("A")) || !q.Enqueue(testAlert("B")) {
		t.Fatalf("queue rejected within capacity")
	}
	if q.Enqueue(testAlert("C")) {
		t.Fatalf("queue accepted beyond capacity")
	}
}

func TestCloseDrainsThenErrClosed(t *testing.T) {
	q := NewQueue(8, time.Minute)
	q.Enqueue(testAlert("A"))
	q.Close()

	if q.Enqueue(testAlert("B")) {
		t.Fatalf("closed queue accepted an alert")
	}

	d, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("backlog not drained after close: %v", err)
	}
	d.Ack()

	if _, err := q.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestNextHonoursContext(t *testing.T) {
	q := NewQueue(8, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := q.Next(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Next did not return after cancellation")
	}
}
