// Package execution is the boundary to the external order-execution
// collaborator. The pipeline only calls Place after the placement stage has
// re-validated a plan; exchange connectivity and signing live elsewhere.
package execution

import (
	"context"

	"signal-enginev1/internal/model"
)

// Result is the outcome of delegating one plan.
type Result struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"` // PLACED, REJECTED, ERROR
	Message string `json:"message"`
}

// Placer places a validated plan with the venue.
type Placer interface {
	Place(ctx context.Context, plan model.Plan) (Result, error)
}
