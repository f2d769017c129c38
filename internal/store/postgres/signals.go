package postgres

import (
	"context"
	"fmt"

	"signal-enginev1/internal/model"
)

// InsertSignal persists one derived signal row. Rows are append-only.
func (s *Store) InsertSignal(ctx context.Context, sig model.StrategySignal) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO signals (symbol, interval, indicator, signal, price, timestamp)
		VALUES (:symbol, :interval, :indicator, :signal, :price, :timestamp)`,
		sig)
	if err != nil {
		return fmt.Errorf("insert signal %s:%s %s: %w", sig.Symbol, sig.Interval, sig.Indicator, err)
	}
	return nil
}

// SignalsSince returns all signal rows for (symbol, interval) at or after
// sinceMillis, newest first. The Plans stage scans these for a fresh primary
// signal plus corroboration from a second indicator family.
func (s *Store) SignalsSince(ctx context.Context, symbol, interval string, sinceMillis int64) ([]model.StrategySignal, error) {
	var sigs []model.StrategySignal
	err := s.db.SelectContext(ctx, &sigs, `
		SELECT id, symbol, interval, indicator, signal, price, timestamp
		FROM signals
		WHERE symbol = $1 AND interval = $2 AND timestamp >= $3
		ORDER BY timestamp DESC, id DESC`,
		symbol, interval, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("select signals %s:%s: %w", symbol, interval, err)
	}
	return sigs, nil
}
