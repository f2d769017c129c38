package model

// Plan sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Plan status lifecycle: NEW → PLACED | DISCARDED.
const (
	PlanStatusNew       = "NEW"
	PlanStatusPlaced    = "PLACED"
	PlanStatusDiscarded = "DISCARDED"
)

// Plan is a sized trade plan produced by the Plans stage. The
// (symbol, interval, timestamp) triple is unique; a second insert at the same
// key means another worker already took this unit of work.
type Plan struct {
	ID        int64   `json:"id" db:"id"`
	Symbol    string  `json:"symbol" db:"symbol"`
	Interval  string  `json:"interval" db:"interval"`
	Side      string  `json:"side" db:"side"`
	Price     float64 `json:"price" db:"price"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	Amount    float64 `json:"amount" db:"amount"`
	Timestamp int64   `json:"timestamp" db:"timestamp"`
	Status    string  `json:"status" db:"status"`
}

// SideForSignal maps a directional signal to an order side.
// SignalNone has no side.
func SideForSignal(signal int) string {
	switch signal {
	case SignalLong:
		return SideBuy
	case SignalShort:
		return SideSell
	default:
		return ""
	}
}
