// Package postgres is the store of record: candles in, signals and plans out.
// Stage handlers read mostly; the single insert/update each stage performs
// happens under its own lock, so no cross-stage transactions are needed.
package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"signal-enginev1/internal/model"
)

// Config configures the store connection.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store wraps the pooled connection and the market's filter table.
type Store struct {
	db     *sqlx.DB
	market model.Market
}

// Open connects, configures the pool, and creates missing tables.
func Open(cfg Config, market model.Market) (*Store, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &Store{db: db, market: market}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	log.Printf("[postgres] connected (market=%s)", market.Name)
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying pool for health probes.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol     TEXT             NOT NULL,
			interval   TEXT             NOT NULL,
			open       DOUBLE PRECISION NOT NULL,
			high       DOUBLE PRECISION NOT NULL,
			low        DOUBLE PRECISION NOT NULL,
			close      DOUBLE PRECISION NOT NULL,
			volume     DOUBLE PRECISION NOT NULL,
			quota      DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp  BIGINT           NOT NULL,
			PRIMARY KEY (symbol, interval, timestamp)
		);

		CREATE TABLE IF NOT EXISTS signals (
			id         BIGSERIAL PRIMARY KEY,
			symbol     TEXT             NOT NULL,
			interval   TEXT             NOT NULL,
			indicator  TEXT             NOT NULL,
			signal     INTEGER          NOT NULL,
			price      DOUBLE PRECISION NOT NULL,
			timestamp  BIGINT           NOT NULL
		);
		CREATE INDEX IF NOT EXISTS signals_lookup
			ON signals (symbol, interval, timestamp);

		CREATE TABLE IF NOT EXISTS plans (
			id         BIGSERIAL PRIMARY KEY,
			symbol     TEXT             NOT NULL,
			interval   TEXT             NOT NULL,
			side       TEXT             NOT NULL,
			price      DOUBLE PRECISION NOT NULL,
			quantity   DOUBLE PRECISION NOT NULL,
			amount     DOUBLE PRECISION NOT NULL,
			timestamp  BIGINT           NOT NULL,
			status     TEXT             NOT NULL DEFAULT 'NEW',
			UNIQUE (symbol, interval, timestamp)
		);

		CREATE TABLE IF NOT EXISTS %s (
			symbol     TEXT             PRIMARY KEY,
			tick_size  DOUBLE PRECISION NOT NULL,
			step_size  DOUBLE PRECISION NOT NULL,
			side       TEXT             NOT NULL DEFAULT 'BOTH',
			enabled    BOOLEAN          NOT NULL DEFAULT TRUE
		);
	`, s.market.FilterTable))
	return err
}
