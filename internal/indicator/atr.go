package indicator

import (
	"fmt"

	"signal-enginev1/internal/model"
)

// ATR computes Wilder's Average True Range over the window.
// The cached tuple is the single ATR value.
func ATR(candles []model.Candle, period int) (string, error) {
	if len(candles) < period+1 {
		return "", fmt.Errorf("atr: window %d too small for period %d", len(candles), period)
	}

	// True range needs the previous close, so the series starts at index 1.
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		c := candles[i]
		prevClose := candles[i-1].Close
		tr := c.High - c.Low
		if d := abs(c.High - prevClose); d > tr {
			tr = d
		}
		if d := abs(c.Low - prevClose); d > tr {
			tr = d
		}
		trs = append(trs, tr)
	}

	// Seed with the simple average of the first period, then Wilder-smooth.
	atr := mean(trs[:period])
	p := float64(period)
	for _, tr := range trs[period:] {
		atr = (atr*(p-1) + tr) / p
	}

	return fmtF(atr), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
