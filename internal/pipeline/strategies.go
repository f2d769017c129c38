package pipeline

import (
	"context"
	"fmt"
	"time"

	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/transport"
)

// StrategiesStage re-reads the indicator record for one symbol × interval,
// derives a directional signal per indicator, persists the non-neutral ones
// and notifies the plans stage. The event is only a pointer: everything is
// re-derived from current state, so duplicates and reordering are harmless.
type StrategiesStage struct {
	market  model.Market
	locker  Locker
	records IndicatorReader
	candles CandleSource
	signals SignalStore
	broker  transport.Broker
	prom    *metrics.Metrics
	lockTTL time.Duration
	now     func() time.Time
}

// NewStrategiesStage wires the strategies stage.
func NewStrategiesStage(market model.Market, locker Locker, records IndicatorReader,
	candles CandleSource, signals SignalStore, broker transport.Broker,
	prom *metrics.Metrics, lockTTL time.Duration) *StrategiesStage {
	return &StrategiesStage{
		market:  market,
		locker:  locker,
		records: records,
		candles: candles,
		signals: signals,
		broker:  broker,
		prom:    prom,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

// Handle derives and persists signals for the event's symbol × interval.
func (s *StrategiesStage) Handle(ctx context.Context, evt model.Event) error {
	lockKey := s.market.LockKey("strategies", evt.Interval, evt.Symbol)
	runLocked(ctx, s.locker, s.prom, "strategies", lockKey, s.lockTTL, func(ctx context.Context) error {
		return s.derive(ctx, evt)
	})
	return nil
}

func (s *StrategiesStage) derive(ctx context.Context, evt model.Event) error {
	day := s.now().UTC().Format("20060102")
	record, err := s.records.Record(ctx, evt.Interval, evt.Symbol, day)
	if err != nil {
		return fmt.Errorf("read indicator record: %w", err)
	}
	if len(record) == 0 {
		return nil // nothing computed for today yet
	}

	latest, err := s.candles.Candles(ctx, evt.Symbol, evt.Interval, 1)
	if err != nil {
		return fmt.Errorf("read latest candle: %w", err)
	}
	if len(latest) == 0 {
		return nil
	}
	lastClose := latest[0].Close
	ts := latest[0].Timestamp

	persisted := 0
	for name, value := range record {
		derive, ok := derivers[name]
		if !ok {
			continue // directionless indicator (atr)
		}
		fields, ok := parseTuple(value)
		if !ok {
			continue
		}
		signal := derive(fields, lastClose)
		if signal == model.SignalNone {
			continue
		}
		sig := model.StrategySignal{
			Symbol:    evt.Symbol,
			Interval:  evt.Interval,
			Indicator: name,
			Signal:    signal,
			Price:     lastClose,
			Timestamp: ts,
		}
		if err := s.signals.InsertSignal(ctx, sig); err != nil {
			return fmt.Errorf("persist signal %s: %w", name, err)
		}
		persisted++
	}
	if persisted == 0 {
		return nil
	}
	s.prom.SignalsPersisted.Add(float64(persisted))

	next := model.Event{Symbol: evt.Symbol, Interval: evt.Interval}
	if err := s.broker.Publish(ctx, s.market.Topic("strategies"), next.JSON()); err != nil {
		s.prom.PublishErrors.Inc()
		return fmt.Errorf("publish strategies-updated: %w", err)
	}
	return nil
}
