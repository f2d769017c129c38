package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/store/postgres"
	"signal-enginev1/internal/transport"
)

// PlansConfig tunes plan creation.
type PlansConfig struct {
	LockTTL time.Duration
	// Lookback bounds how old a primary signal and its corroboration may be,
	// in interval steps.
	LookbackSteps int
	// OrderAmount is the quote-asset budget per plan before step snapping.
	OrderAmount float64
}

// PlansStage turns a fresh, corroborated signal into a sized plan. A plan's
// (symbol, interval, timestamp) is unique: losing the insert race means
// another worker already took it, which is a no-op, not a failure.
type PlansStage struct {
	market  model.Market
	locker  Locker
	signals SignalStore
	plans   PlanStore
	symbols SymbolSource
	queue   transport.Queue
	prom    *metrics.Metrics
	cfg     PlansConfig
	now     func() time.Time
}

// NewPlansStage wires the plans stage.
func NewPlansStage(market model.Market, locker Locker, signals SignalStore, plans PlanStore,
	symbols SymbolSource, queue transport.Queue, prom *metrics.Metrics, cfg PlansConfig) *PlansStage {
	return &PlansStage{
		market:  market,
		locker:  locker,
		signals: signals,
		plans:   plans,
		symbols: symbols,
		queue:   queue,
		prom:    prom,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Handle evaluates the event's symbol × interval for a new plan.
func (s *PlansStage) Handle(ctx context.Context, evt model.Event) error {
	lockKey := s.market.LockKey("plans", evt.Interval, evt.Symbol)
	runLocked(ctx, s.locker, s.prom, "plans", lockKey, s.cfg.LockTTL, func(ctx context.Context) error {
		return s.plan(ctx, evt)
	})
	return nil
}

func (s *PlansStage) plan(ctx context.Context, evt model.Event) error {
	step := model.IntervalStepMillis(evt.Interval)
	if step == 0 {
		return fmt.Errorf("unknown interval %q", evt.Interval)
	}
	since := s.now().UnixMilli() - int64(s.cfg.LookbackSteps)*step

	sigs, err := s.signals.SignalsSince(ctx, evt.Symbol, evt.Interval, since)
	if err != nil {
		return fmt.Errorf("scan signals: %w", err)
	}
	if len(sigs) == 0 {
		return nil
	}

	// Primary: the freshest directional signal. Corroboration: any signal in
	// the same direction from a different indicator family inside the window.
	primary := sigs[0]
	side := model.SideForSignal(primary.Signal)
	if side == "" {
		return nil
	}
	if !corroborated(sigs, primary) {
		return nil
	}

	tick, stepSize, err := s.symbols.SymbolFilters(ctx, evt.Symbol)
	if err != nil {
		return fmt.Errorf("symbol filters: %w", err)
	}

	price := snap(primary.Price, tick)
	if price <= 0 {
		return fmt.Errorf("degenerate plan price for %s: %.8f", evt.Symbol, primary.Price)
	}
	quantity := snap(s.cfg.OrderAmount/price, stepSize)
	if quantity <= 0 {
		return nil // budget below one step, nothing to place
	}

	plan := model.Plan{
		Symbol:    evt.Symbol,
		Interval:  evt.Interval,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Amount:    price * quantity,
		Timestamp: primary.Timestamp,
		Status:    model.PlanStatusNew,
	}
	id, err := s.plans.InsertPlan(ctx, plan)
	if errors.Is(err, postgres.ErrPlanTaken) {
		s.prom.PlansDuplicate.Inc()
		log.Printf("[plans] %s:%s@%d already taken", evt.Symbol, evt.Interval, plan.Timestamp)
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	s.prom.PlansCreated.Inc()

	msg, err := model.NewQueueMessage(model.ActionPlacePlan, model.PlanEvent{PlanID: id})
	if err != nil {
		return fmt.Errorf("encode placement message: %w", err)
	}
	if err := s.queue.Send(ctx, s.market.QueueName, msg.Encode()); err != nil {
		s.prom.PublishErrors.Inc()
		return fmt.Errorf("enqueue plan %d: %w", id, err)
	}
	return nil
}

// corroborated reports whether another indicator family seconded the primary
// signal's direction within the lookback window.
func corroborated(sigs []model.StrategySignal, primary model.StrategySignal) bool {
	primaryFamily := model.IndicatorFamily(primary.Indicator)
	for _, sig := range sigs {
		if sig.Signal != primary.Signal {
			continue
		}
		if family := model.IndicatorFamily(sig.Indicator); family != "" && family != primaryFamily {
			return true
		}
	}
	return false
}

// snap rounds v down to a multiple of unit. A zero unit leaves v unchanged.
func snap(v, unit float64) float64 {
	if unit <= 0 {
		return v
	}
	return math.Floor(v/unit) * unit
}
