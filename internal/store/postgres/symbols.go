package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSymbolUnknown marks a filter lookup for a symbol this market does not
// carry.
var ErrSymbolUnknown = errors.New("symbol not configured")

// ActiveSymbols returns the enabled symbols tradeable on the given side
// ('BUY', 'SELL', or any side when the row says 'BOTH'). An empty side
// selects every enabled symbol.
func (s *Store) ActiveSymbols(ctx context.Context, side string) ([]string, error) {
	var symbols []string
	query := fmt.Sprintf(`
		SELECT symbol FROM %s
		WHERE enabled AND ($1 = '' OR side = $1 OR side = 'BOTH')
		ORDER BY symbol`, s.market.FilterTable)
	if err := s.db.SelectContext(ctx, &symbols, query, side); err != nil {
		return nil, fmt.Errorf("select active symbols: %w", err)
	}
	return symbols, nil
}

// SymbolFilters returns the price tick size and quantity step size a plan's
// price and quantity must be snapped to.
func (s *Store) SymbolFilters(ctx context.Context, symbol string) (tickSize, stepSize float64, err error) {
	query := fmt.Sprintf(`SELECT tick_size, step_size FROM %s WHERE symbol = $1`, s.market.FilterTable)
	row := s.db.QueryRowContext(ctx, query, symbol)
	if err = row.Scan(&tickSize, &stepSize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrSymbolUnknown
		}
		return 0, 0, fmt.Errorf("select filters %s: %w", symbol, err)
	}
	return tickSize, stepSize, nil
}
