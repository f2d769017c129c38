package indicator

import (
	"fmt"

	"signal-enginev1/internal/model"
)

// KDJ computes the stochastic %K/%D/%J over typical prices.
// %K is the raw stochastic over longPeriod, %D is the SMA of %K over
// shortPeriod, %J = 3%K − 2%D. Cached tuple: "k,d,j,firstTypical,ts".
func KDJ(candles []model.Candle, longPeriod, shortPeriod int) (string, error) {
	prices := typicals(candles)
	if len(prices) < longPeriod+shortPeriod-1 {
		return "", fmt.Errorf("kdj: window %d too small for periods %d/%d",
			len(prices), longPeriod, shortPeriod)
	}

	// %K series for the last shortPeriod steps, enough to average into %D.
	ks := make([]float64, 0, shortPeriod)
	for t := len(prices) - shortPeriod; t < len(prices); t++ {
		lo, hi := minMax(prices[t-longPeriod+1 : t+1])
		if hi == lo {
			return "", fmt.Errorf("kdj: flat stochastic range: %w", ErrDegenerate)
		}
		ks = append(ks, 100*(prices[t]-lo)/(hi-lo))
	}

	k := ks[len(ks)-1]
	d := mean(ks)
	j := 3*k - 2*d

	last := candles[len(candles)-1]
	return tuple(fmtF(k), fmtF(d), fmtF(j), fmtF(prices[0]), fmtI(last.Timestamp)), nil
}
