package scheduler

import (
	"context"
	"fmt"
	"log"

	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/transport"
)

// SymbolLister provides the tradeable universe for the sweep.
type SymbolLister interface {
	ActiveSymbols(ctx context.Context, side string) ([]string, error)
}

// Sweep periodically re-publishes kline events for every interval × active
// symbol. The broadcast broker is fire-and-forget, so a stage that missed an
// event (restart, dropped subscriber buffer) catches up on the next sweep;
// the per-key locks make the duplicate triggers harmless.
type Sweep struct {
	market    model.Market
	symbols   SymbolLister
	broker    transport.Broker
	prom      *metrics.Metrics
	intervals []string
}

// NewSweep wires a sweep for the given intervals.
func NewSweep(market model.Market, symbols SymbolLister, broker transport.Broker,
	prom *metrics.Metrics, intervals []string) *Sweep {
	return &Sweep{
		market:    market,
		symbols:   symbols,
		broker:    broker,
		prom:      prom,
		intervals: intervals,
	}
}

// Job packages the sweep as a scheduler job.
func (s *Sweep) Job(sched Schedule) *Job {
	return &Job{
		Name:     fmt.Sprintf("%s-kline-sweep", s.market.Name),
		Schedule: sched,
		Handler:  s.Run,
	}
}

// Run publishes one kline event per interval × symbol.
func (s *Sweep) Run(ctx context.Context) error {
	s.prom.SweepTicks.Inc()

	symbols, err := s.symbols.ActiveSymbols(ctx, "")
	if err != nil {
		return fmt.Errorf("list active symbols: %w", err)
	}

	topic := s.market.Topic("klines")
	for _, interval := range s.intervals {
		for _, symbol := range symbols {
			evt := model.Event{Symbol: symbol, Interval: interval}
			if err := s.broker.Publish(ctx, topic, evt.JSON()); err != nil {
				s.prom.PublishErrors.Inc()
				log.Printf("[sweep] publish %s %s: %v", interval, symbol, err)
			}
		}
	}
	return nil
}
