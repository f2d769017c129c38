// Package indicator computes technical indicators over candle windows.
//
// Every computation consumes a chronologically-ordered window and returns a
// comma-joined value tuple that the engine writes into the day-scoped
// indicator record under the indicator's field name. Computations never
// produce NaN: degenerate inputs (zero-width bands, negative radicands,
// flat stochastic ranges) abort with ErrDegenerate instead.
package indicator

import (
	"errors"
	"strconv"
	"strings"

	"signal-enginev1/internal/model"
)

// ErrDegenerate marks inputs on which the math has no defined value.
var ErrDegenerate = errors.New("degenerate indicator input")

// Compute is one indicator computation. prev is the previously cached tuple
// for this indicator ("" if none); only indicators that carry state across
// invocations (ichimoku cross detection) look at it.
type Compute func(candles []model.Candle, prev string) (string, error)

// Spec binds an indicator name to its computation and required window size.
type Spec struct {
	Name    string
	Window  int
	Compute Compute
}

// fmtF formats a float the way tuples are cached: shortest exact decimal form.
func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fmtI formats a millisecond timestamp field.
func fmtI(v int64) string {
	return strconv.FormatInt(v, 10)
}

// tuple joins already-formatted fields with commas.
func tuple(fields ...string) string {
	return strings.Join(fields, ",")
}

// closes extracts close prices from a window.
func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

// typicals extracts (close+high+low)/3 prices from a window.
func typicals(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].TypicalPrice()
	}
	return out
}

// avgPrices extracts (open+close+high+low)/4 prices from a window.
func avgPrices(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].AvgPrice()
	}
	return out
}

// mean returns the arithmetic mean of vals. Callers guarantee len > 0.
func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// minMax returns the minimum and maximum of vals. Callers guarantee len > 0.
func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
