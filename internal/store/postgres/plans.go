package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"signal-enginev1/internal/model"
)

// ErrPlanTaken marks an insert that lost the (symbol, interval, timestamp)
// uniqueness race: another worker already cut this plan. A soft no-op for
// callers, not a failure.
var ErrPlanTaken = errors.New("plan already taken")

// ErrPlanNotFound marks a lookup for a plan id that does not exist.
var ErrPlanNotFound = errors.New("plan not found")

const pqUniqueViolation = "23505"

// InsertPlan persists a new plan and returns its id.
// A duplicate (symbol, interval, timestamp) returns ErrPlanTaken.
func (s *Store) InsertPlan(ctx context.Context, p model.Plan) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO plans (symbol, interval, side, price, quantity, amount, timestamp, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.Symbol, p.Interval, p.Side, p.Price, p.Quantity, p.Amount, p.Timestamp, p.Status,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return 0, ErrPlanTaken
		}
		return 0, fmt.Errorf("insert plan %s:%s: %w", p.Symbol, p.Interval, err)
	}
	return id, nil
}

// PlanByID loads one plan.
func (s *Store) PlanByID(ctx context.Context, id int64) (model.Plan, error) {
	var p model.Plan
	err := s.db.GetContext(ctx, &p, `
		SELECT id, symbol, interval, side, price, quantity, amount, timestamp, status
		FROM plans WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return model.Plan{}, fmt.Errorf("select plan %d: %w", id, err)
	}
	return p, nil
}

// UpdatePlanStatus records the placement outcome for a plan.
func (s *Store) UpdatePlanStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE plans SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update plan %d status: %w", id, err)
	}
	return nil
}
