package pipeline

import (
	"context"
	"fmt"
	"time"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/transport"
)

// IndicatorsStage recomputes the indicator battery for one symbol × interval
// when its klines change, then notifies the strategies stage.
type IndicatorsStage struct {
	market  model.Market
	locker  Locker
	engine  *indicator.Engine
	candles CandleSource
	broker  transport.Broker
	prom    *metrics.Metrics
	lockTTL time.Duration
	now     func() time.Time
}

// NewIndicatorsStage wires the indicators stage.
func NewIndicatorsStage(market model.Market, locker Locker, engine *indicator.Engine,
	candles CandleSource, broker transport.Broker, prom *metrics.Metrics, lockTTL time.Duration) *IndicatorsStage {
	return &IndicatorsStage{
		market:  market,
		locker:  locker,
		engine:  engine,
		candles: candles,
		broker:  broker,
		prom:    prom,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

// Handle runs the full battery for the event's symbol × interval. On any
// indicator success it publishes an indicators-updated event; an all-failed
// pass publishes nothing and waits for the next trigger.
func (s *IndicatorsStage) Handle(ctx context.Context, evt model.Event) error {
	lockKey := s.market.LockKey("indicators", evt.Interval, evt.Symbol)
	runLocked(ctx, s.locker, s.prom, "indicators", lockKey, s.lockTTL, func(ctx context.Context) error {
		return s.compute(ctx, evt)
	})
	return nil
}

func (s *IndicatorsStage) compute(ctx context.Context, evt model.Event) error {
	window, err := s.candles.Candles(ctx, evt.Symbol, evt.Interval, s.engine.MaxWindow())
	if err != nil {
		return fmt.Errorf("read candles: %w", err)
	}

	start := time.Now()
	succeeded, err := s.engine.ComputeAll(ctx, evt.Symbol, evt.Interval, window, s.now())
	s.prom.IndicatorComputeDur.Observe(time.Since(start).Seconds())
	if succeeded == 0 {
		// An all-failed pass surfaces why (stale window, data gap), so the
		// stage outcome reflects the validator instead of reading ok.
		return err
	}
	s.prom.IndicatorsComputed.Add(float64(succeeded))

	next := model.Event{Symbol: evt.Symbol, Interval: evt.Interval}
	if err := s.broker.Publish(ctx, s.market.Topic("indicators"), next.JSON()); err != nil {
		s.prom.PublishErrors.Inc()
		return fmt.Errorf("publish indicators-updated: %w", err)
	}
	return nil
}
