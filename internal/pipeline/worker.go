package pipeline

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"time"

	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/transport"
)

// Worker subscribes to broker topics and dispatches events to the stage
// registered for each topic. Registration happens once at wiring time; the
// run loops only read the registry.
type Worker struct {
	broker transport.Broker

	mu     sync.Mutex
	stages map[string]Handler
}

// NewWorker returns a worker with an empty registry.
func NewWorker(broker transport.Broker) *Worker {
	return &Worker{
		broker: broker,
		stages: make(map[string]Handler),
	}
}

// Register binds a stage handler to a topic. Later registrations for the
// same topic replace earlier ones.
func (w *Worker) Register(topic string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stages[topic] = h
}

// Run subscribes every registered topic and blocks until ctx is cancelled.
// Each topic gets its own goroutine so a slow stage does not hold up the
// others; within a topic, events are handled one at a time in order.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	topics := make(map[string]Handler, len(w.stages))
	for t, h := range w.stages {
		topics[t] = h
	}
	w.mu.Unlock()

	var wg sync.WaitGroup
	for topic, h := range topics {
		ch, err := w.broker.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(topic string, h Handler, ch <-chan []byte) {
			defer wg.Done()
			w.consume(ctx, topic, h, ch)
		}(topic, h, ch)
	}
	wg.Wait()
	return ctx.Err()
}

func (w *Worker) consume(ctx context.Context, topic string, h Handler, ch <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case body, ok := <-ch:
			if !ok {
				log.Printf("[worker] subscription to %s closed", topic)
				return
			}
			evt, err := model.ParseEvent(body)
			if err != nil {
				log.Printf("[worker] %s: bad event dropped: %v", topic, err)
				continue
			}
			hctx := logger.WithTraceID(ctx,
				logger.EventTraceID(evt.Symbol, evt.Interval, time.Now()))
			if err := h.Handle(hctx, evt); err != nil {
				// Stages classify and log their own failures; anything
				// surfacing here is a dispatch-level problem.
				attrs := append(logger.TraceAttrs(hctx),
					slog.String("topic", topic), slog.String("symbol", evt.Symbol))
				slog.Error("event dispatch failed", append(attrs, slog.Any("err", err))...)
			}
		}
	}
}
