// Package pipeline contains the staged computation chain:
// klines → indicators → strategies → plans → placement.
//
// Every stage has the same shape: acquire the per-key lock, re-read fresh
// state from the store of record, compute, persist, notify the next stage,
// release the lock. Lock contention is a silent skip — the next scheduled
// trigger or event retries. Handlers catch their own errors and never take
// down the worker loop.
package pipeline

import (
	"context"
	"log"
	"time"

	"signal-enginev1/internal/continuity"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
)

// Handler processes one routing event for a stage.
type Handler interface {
	Handle(ctx context.Context, evt model.Event) error
}

// Locker is the per-key mutual exclusion the stages run under.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) (bool, error)
}

// CandleSource reads candle windows from the store of record.
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
}

// SignalStore persists and scans derived signals.
type SignalStore interface {
	InsertSignal(ctx context.Context, sig model.StrategySignal) error
	SignalsSince(ctx context.Context, symbol, interval string, sinceMillis int64) ([]model.StrategySignal, error)
}

// PlanStore persists plans and their placement outcomes.
type PlanStore interface {
	InsertPlan(ctx context.Context, p model.Plan) (int64, error)
	PlanByID(ctx context.Context, id int64) (model.Plan, error)
	UpdatePlanStatus(ctx context.Context, id int64, status string) error
}

// SymbolSource provides the tradeable universe and per-symbol filters.
type SymbolSource interface {
	ActiveSymbols(ctx context.Context, side string) ([]string, error)
	SymbolFilters(ctx context.Context, symbol string) (tickSize, stepSize float64, err error)
}

// IndicatorReader reads the day-scoped indicator record.
type IndicatorReader interface {
	Record(ctx context.Context, interval, symbol, day string) (map[string]string, error)
}

// PriceSource reads the latest market snapshot for placement sanity checks.
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (price float64, ok bool, err error)
}

// runLocked drives the shared stage state machine: lock → handler →
// guaranteed release. The handler's error is classified for metrics and
// logged; it is never propagated into the worker loop.
func runLocked(ctx context.Context, locker Locker, prom *metrics.Metrics,
	stage, lockKey string, ttl time.Duration, fn func(ctx context.Context) error) {

	token, ok, err := locker.Acquire(ctx, lockKey, ttl)
	if err != nil {
		log.Printf("[%s] lock acquire %s: %v", stage, lockKey, err)
		prom.StageRuns.WithLabelValues(stage, metrics.OutcomeError).Inc()
		return
	}
	if !ok {
		// Another worker owns this unit of work right now.
		prom.LockAcquires.WithLabelValues("contended").Inc()
		prom.StageRuns.WithLabelValues(stage, metrics.OutcomeLockSkip).Inc()
		return
	}
	prom.LockAcquires.WithLabelValues("acquired").Inc()
	defer func() {
		// Release must not inherit a cancelled ctx, or a crashed-handler
		// lock would linger for the full TTL.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := locker.Release(rctx, lockKey, token); err != nil {
			log.Printf("[%s] lock release %s: %v", stage, lockKey, err)
		}
	}()

	start := time.Now()
	err = fn(ctx)
	prom.StageRunDur.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	prom.StageRuns.WithLabelValues(stage, classify(err)).Inc()
	if err != nil {
		log.Printf("[%s] %s: %v", stage, lockKey, err)
	}
}

// classify maps a handler error to the stage outcome taxonomy.
func classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case continuity.IsStaleness(err):
		return metrics.OutcomeStale
	case continuity.IsDataGap(err):
		return metrics.OutcomeDataGap
	default:
		return metrics.OutcomeError
	}
}
