package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// WebhookProcessor is the part of the payment service the workers drive.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, event ports.WebhookEvent) error
}

// Dispatcher routes webhook events to a fixed set of workers using consistent
// hashing on the payment id, so deliveries for one payment are handled in
// arrival order.
//
// Every event accepted by Enqueue is processed before Stop returns. Events
// offered after Stop are dropped and logged.
type Dispatcher struct {
	workers   []chan ports.WebhookEvent
	processor WebhookProcessor
	log       zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor WebhookProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.WebhookEvent, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.WebhookEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx is handed to the processor; the
// workers themselves run until Stop has drained their queues, so ctx should
// outlive Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its payment id.
// The call is non-blocking up to channelBuffer capacity. It reports false
// when the dispatcher is stopped and the event was dropped.
func (d *Dispatcher) Enqueue(event ports.WebhookEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.log.Warn().
			Str("payment_id", event.PaymentID).
			Str("action", event.Action).
			Msg("dispatcher stopped, webhook event dropped")
		return false
	}

	idx := d.shardIndex(event.PaymentID)
	d.workers[idx] <- event
	metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return true
}

// Stop closes intake and waits for the workers to finish every queued event,
// or for ctx to expire. It is safe to call more than once.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a payment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(paymentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(paymentID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.WebhookEvent) {
	defer d.wg.Done()
	depth := metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(id))
	for event := range ch {
		depth.Set(float64(len(ch)))
		if err := d.processor.HandleWebhook(ctx, event); err != nil {
			d.log.Error().Err(err).
				Str("payment_id", event.PaymentID).
				Int("worker_id", id).
				Msg("webhook processing failed")
		}
	}
}
