package postgres

import (
	"context"
	"fmt"

	"signal-enginev1/internal/model"
)

// Candles returns the most recent limit candles for (symbol, interval) in
// chronological order. The read is newest-first for the index, then reversed
// for indicator math.
func (s *Store) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	var candles []model.Candle
	err := s.db.SelectContext(ctx, &candles, `
		SELECT symbol, interval, open, high, low, close, volume, quota, timestamp
		FROM candles
		WHERE symbol = $1 AND interval = $2
		ORDER BY timestamp DESC
		LIMIT $3`,
		symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("select candles %s:%s: %w", symbol, interval, err)
	}
	model.ReverseCandles(candles)
	return candles, nil
}

// InsertCandle upserts one candle. Used by ingestion tooling and tests; the
// pipeline itself only reads candles.
func (s *Store) InsertCandle(ctx context.Context, c model.Candle) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO candles (symbol, interval, open, high, low, close, volume, quota, timestamp)
		VALUES (:symbol, :interval, :open, :high, :low, :close, :volume, :quota, :timestamp)
		ON CONFLICT (symbol, interval, timestamp) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume, quota = EXCLUDED.quota`,
		c)
	if err != nil {
		return fmt.Errorf("insert candle %s: %w", c.Key(), err)
	}
	return nil
}
