package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signal-enginev1/internal/model"
)

// Fill represents a simulated order fill.
type Fill struct {
	OrderID   string     `json:"order_id"`
	Plan      model.Plan `json:"plan"`
	FillPrice float64    `json:"fill_price"`
	FilledAt  time.Time  `json:"filled_at"`
	Slippage  float64    `json:"slippage"`
}

// PaperPlacer simulates order execution without real venue calls. It is the
// default collaborator when no live execution endpoint is configured.
type PaperPlacer struct {
	mu       sync.RWMutex
	fills    []Fill
	orderSeq int64

	slippageBps float64 // basis points of simulated slippage
}

// NewPaperPlacer creates a paper execution collaborator.
func NewPaperPlacer(slippageBps float64) *PaperPlacer {
	return &PaperPlacer{
		fills:       make([]Fill, 0, 1000),
		slippageBps: slippageBps,
	}
}

// Fills returns a snapshot of all fills.
func (p *PaperPlacer) Fills() []Fill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make([]Fill, len(p.fills))
	copy(cp, p.fills)
	return cp
}

// Place simulates a fill at the plan price adjusted by slippage.
func (p *PaperPlacer) Place(_ context.Context, plan model.Plan) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.orderSeq++
	orderID := fmt.Sprintf("PAPER-%d", p.orderSeq)

	slippage := plan.Price * p.slippageBps / 10000
	fillPrice := plan.Price
	if plan.Side == model.SideBuy {
		fillPrice += slippage // buy fills higher
	} else {
		fillPrice -= slippage // sell fills lower
	}

	p.fills = append(p.fills, Fill{
		OrderID:   orderID,
		Plan:      plan,
		FillPrice: fillPrice,
		FilledAt:  time.Now().UTC(),
		Slippage:  slippage,
	})

	return Result{
		OrderID: orderID,
		Status:  "PLACED",
		Message: fmt.Sprintf("paper fill at %.8f", fillPrice),
	}, nil
}
