package model

// Directional signal values shared by every stage.
const (
	SignalNone  = 0
	SignalLong  = 1
	SignalShort = 2
)

// StrategySignal is one directional reading derived from a single indicator.
// Rows are immutable once written; recomputations insert new rows keyed by
// timestamp.
type StrategySignal struct {
	ID        int64   `json:"id" db:"id"`
	Symbol    string  `json:"symbol" db:"symbol"`
	Interval  string  `json:"interval" db:"interval"`
	Indicator string  `json:"indicator" db:"indicator"`
	Signal    int     `json:"signal" db:"signal"`
	Price     float64 `json:"price" db:"price"`
	Timestamp int64   `json:"timestamp" db:"timestamp"`
}

// Indicator families used for plan corroboration. A primary signal must be
// seconded by a signal from a different family before a plan is cut.
const (
	FamilyTrend      = "trend"      // zlema, ha_zlema, ichimoku
	FamilyOscillator = "oscillator" // kdj, andean
	FamilyVolatility = "volatility" // bbands, atr
	FamilyVolume     = "volume"     // volume_profile
)

var indicatorFamilies = map[string]string{
	"zlema":          FamilyTrend,
	"ha_zlema":       FamilyTrend,
	"ichimoku":       FamilyTrend,
	"kdj":            FamilyOscillator,
	"andean":         FamilyOscillator,
	"bbands":         FamilyVolatility,
	"atr":            FamilyVolatility,
	"volume_profile": FamilyVolume,
}

// IndicatorFamily returns the family an indicator belongs to, or "" if the
// indicator name is unknown.
func IndicatorFamily(indicator string) string {
	return indicatorFamilies[indicator]
}
