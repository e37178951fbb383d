package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/ports"
)

type recordingProcessor struct {
	mu    sync.Mutex
	seen  map[string][]string
	total int
	done  chan struct{}
	want  int
	err   error
}

func newRecordingProcessor(want int) *recordingProcessor {
	return &recordingProcessor{seen: map[string][]string{}, done: make(chan struct{}), want: want}
}

func (p *recordingProcessor) HandleWebhook(_ context.Context, ev ports.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[ev.PaymentID] = append(p.seen[ev.PaymentID], ev.Action)
	p.total++
	if p.total == p.want {
		close(p.done)
	}
	return p.err
}

func (p *recordingProcessor) wait(t *testing.T) {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %d events", p.want)
	}
}

func TestDispatcher_PreservesPerPaymentOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actions := []string{"payment.created", "payment.updated", "payment.approved"}
	ids := []string{"100", "200", "300", "400"}

	proc := newRecordingProcessor(len(actions) * len(ids))
	d := NewDispatcher(3, proc, zerolog.Nop())
	d.Start(ctx)

	for _, a := range actions {
		for _, id := range ids {
			d.Enqueue(ports.WebhookEvent{PaymentID: id, Action: a})
		}
	}
	proc.wait(t)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	for _, id := range ids {
		got := proc.seen[id]
		if len(got) != len(actions) {
			t.Fatalf("payment %s: expected %d events, got %v", id, len(actions), got)
		}
		for i := range actions {
			if got[i] != actions[i] {
				t.Fatalf("payment %s: out of order: %v", id, got)
			}
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(5, newRecordingProcessor(0), zerolog.Nop())
	for _, id := range []string{"1", "abc", "999999999"} {
		first := d.shardIndex(id)
		if first < 0 || first >= 5 {
			t.Fatalf("index %d out of range", first)
		}
		for i := 0; i < 10; i++ {
			if d.shardIndex(id) != first {
				t.Fatalf("shard index for %q changed", id)
			}
		}
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingProcessor(0), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_ContinuesAfterProcessorError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := newRecordingProcessor(2)
	proc.err = errors.New("lookup failed")
	d := NewDispatcher(1, proc, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.WebhookEvent{PaymentID: "1"})
	d.Enqueue(ports.WebhookEvent{PaymentID: "2"})
	proc.wait(t)
}

func TestDispatcher_StopDrainsAcceptedEvents(t *testing.T) {
	const n = channelBuffer + 1

	proc := newRecordingProcessor(n)
	d := NewDispatcher(1, proc, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < n; i++ {
		if !d.Enqueue(ports.WebhookEvent{PaymentID: "7", Action: "payment.updated"}) {
			t.Fatalf("event %d rejected before stop", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.total != n {
		t.Fatalf("expected %d processed events, got %d", n, proc.total)
	}
}

func TestDispatcher_EnqueueAfterStopDoesNotBlock(t *testing.T) {
	proc := newRecordingProcessor(0)
	d := NewDispatcher(1, proc, zerolog.Nop())
	d.Start(context.Background())

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	returned := make(chan bool, 1)
	go func() {
		accepted := false
		for i := 0; i < channelBuffer+1; i++ {
			if d.Enqueue(ports.WebhookEvent{PaymentID: "9"}) {
				accepted = true
			}
		}
		returned <- accepted
	}()

	select {
	case accepted := <-returned:
		if accepted {
			t.Fatalf("events must be rejected after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked after stop")
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.total != 0 {
		t.Fatalf("expected no processed events, got %d", proc.total)
	}
}

func TestDispatcher_CancelledContextKeepsDraining(t *testing.T) {
	const n = channelBuffer + 1

	ctx, cancel := context.WithCancel(context.Background())
	proc := newRecordingProcessor(n)
	d := NewDispatcher(1, proc, zerolog.Nop())
	d.Start(ctx)
	cancel()

	returned := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			d.Enqueue(ports.WebhookEvent{PaymentID: "5"})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked after the worker context was cancelled")
	}
	proc.wait(t)
}
