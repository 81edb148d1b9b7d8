// internal/notify/dispatcher.go
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher hands events to a Sink on a background worker so callers
// never wait on, or fail because of, delivery.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewDispatcher starts the worker. Events beyond queueSize are dropped.
func NewDispatcher(sink Sink, queueSize int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &Dispatcher{
		sink:    sink,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues events without blocking.
func (d *Dispatcher) Notify(events ...Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Notification dropped after shutdown", "count", len(events))
		return
	}
	for _, e := range events {
		select {
		case d.queue <- e:
		default:
			d.logger.Warn("Notification queue full, dropping event",
				"recipient_id", e.RecipientID, "correlation_id", e.CorrelationID)
		}
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Notification sink panicked", "panic", r, "correlation_id", e.CorrelationID)
		}
	}()
	if err := d.sink.Send(ctx, e); err != nil {
		d.logger.Error("Failed to deliver notification",
			"error", err, "recipient_id", e.RecipientID, "kind", e.Kind, "correlation_id", e.CorrelationID)
	}
}

// Close stops intake and waits for queued events to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
