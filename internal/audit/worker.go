package audit

import (
	"context"
	"log/slog"
)

// Sink is anything that can receive an audit event (store-backed publisher,
// Kafka publisher).
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// Worker decouples audit emission from the request path. Services send to
// the inbox without blocking; the worker forwards each event to the sink and
// logs failures instead of propagating them into request handling.
type Worker struct {
	sink   Sink
	inbox  chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, buffer int, logger *slog.Logger) *Worker {
	return &Worker{
		sink:   sink,
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues an event. Request-scoped fields are captured here, while the
// request context is still live. If the inbox is full the event is dropped
// with a warning rather than stalling the caller.
func (w *Worker) Emit(ctx context.Context, event Event) error {
	event = enrich(ctx, event)
	select {
	case w.inbox <- event:
	default:
		w.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
		)
	}
	return nil
}

// Run drains the inbox until ctx is cancelled. Remaining buffered events are
// flushed before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return ctx.Err()
		case event := <-w.inbox:
			w.forward(ctx, event)
		}
	}
}

func (w *Worker) flush() {
	for {
		select {
		case event := <-w.inbox:
			w.forward(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) forward(ctx context.Context, event Event) {
	if err := w.sink.Emit(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
