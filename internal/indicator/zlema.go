package indicator

import (
	"fmt"

	"signal-enginev1/internal/model"
)

// ZLEMA computes the zero-lag EMA over close prices.
// The de-lagged input is input[t] = close[t] + (close[t] − close[t−lag]),
// lag = (period−1)/2, and the EMA of that series removes most of the EMA's
// group delay. Cached tuple: "emaPrev,emaLast,firstClose,ts".
func ZLEMA(candles []model.Candle, period int) (string, error) {
	return zlemaOver(closes(candles), candles, period)
}

// HAZLEMA is ZLEMA computed over the Heikin-Ashi close (o+c+h+l)/4 instead
// of the raw close. Cached tuple: "emaPrev,emaLast,firstAvgPrice,ts".
func HAZLEMA(candles []model.Candle, period int) (string, error) {
	return zlemaOver(avgPrices(candles), candles, period)
}

func zlemaOver(prices []float64, candles []model.Candle, period int) (string, error) {
	lag := (period - 1) / 2
	if len(prices) < period+lag {
		return "", fmt.Errorf("zlema: window %d too small for period %d (lag %d)", len(prices), period, lag)
	}

	k := 2.0 / float64(period+1)
	var emaPrev, ema float64
	seeded := false
	for t := lag; t < len(prices); t++ {
		input := prices[t] + (prices[t] - prices[t-lag])
		if !seeded {
			ema = input
			emaPrev = input
			seeded = true
			continue
		}
		emaPrev = ema
		ema = ema + k*(input-ema)
	}

	last := candles[len(candles)-1]
	return tuple(fmtF(emaPrev), fmtF(ema), fmtF(prices[0]), fmtI(last.Timestamp)), nil
}
