package indicator

import (
	"fmt"
	"math"

	"signal-enginev1/internal/model"
)

// bbandsRecent is how many most recent completed periods get a %B/width pair.
const bbandsRecent = 3

// BBands computes 2σ Bollinger bands over typical prices and, for the three
// most recent completed periods, %B = (price−lower)/(upper−lower) and
// width = (upper−lower)/middle. A zero-width band anywhere in those three
// aborts the whole tuple. Cached tuple: "b1,b2,b3,w1,w2,w3,firstTypical,ts"
// with b1/w1 the most recent.
func BBands(candles []model.Candle, period int) (string, error) {
	prices := typicals(candles)
	if len(prices) < period+bbandsRecent-1 {
		return "", fmt.Errorf("bbands: window %d too small for period %d", len(prices), period)
	}

	var bs, ws [bbandsRecent]float64
	for off := 0; off < bbandsRecent; off++ {
		end := len(prices) - off
		win := prices[end-period : end]

		middle := mean(win)
		variance := 0.0
		for _, v := range win {
			d := v - middle
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))
		upper := middle + 2*sigma
		lower := middle - 2*sigma
		if upper == lower {
			return "", fmt.Errorf("bbands: zero-width band at offset %d: %w", off, ErrDegenerate)
		}

		price := win[len(win)-1]
		bs[off] = (price - lower) / (upper - lower)
		ws[off] = (upper - lower) / middle
	}

	last := candles[len(candles)-1]
	return tuple(
		fmtF(bs[0]), fmtF(bs[1]), fmtF(bs[2]),
		fmtF(ws[0]), fmtF(ws[1]), fmtF(ws[2]),
		fmtF(prices[0]), fmtI(last.Timestamp),
	), nil
}
