package indicator

import (
	"fmt"
	"math"

	"signal-enginev1/internal/model"
)

// Andean computes the Andean Oscillator over open/close prices.
//
// Two recursive envelopes track a clamped EMA of the price (up1/dn1) and of
// the squared price (up2/dn2); bull and bear components fall out as the
// standard deviations bulls = √(dn2−dn1²) and bears = √(up2−up1²). The
// signal line is an EMA(signalLength) of max(bulls, bears). A negative
// radicand aborts instead of producing NaN.
//
// Cached tuple: "bull,bear,signal".
func Andean(candles []model.Candle, period, signalLength int) (string, error) {
	if len(candles) < period {
		return "", fmt.Errorf("andean: window %d too small for period %d", len(candles), period)
	}

	alpha := 2.0 / float64(period+1)
	sigK := 2.0 / float64(signalLength+1)

	first := candles[0]
	up1 := math.Max(first.Close, first.Open)
	dn1 := math.Min(first.Close, first.Open)
	up2 := math.Max(first.Close*first.Close, first.Open*first.Open)
	dn2 := math.Min(first.Close*first.Close, first.Open*first.Open)

	var bulls, bears, signal float64
	sigSeeded := false
	for _, c := range candles[1:] {
		cc, oo := c.Close, c.Open
		c2, o2 := cc*cc, oo*oo

		up1 = math.Max(math.Max(cc, oo), up1-alpha*(up1-cc))
		up2 = math.Max(math.Max(c2, o2), up2-alpha*(up2-c2))
		dn1 = math.Min(math.Min(cc, oo), dn1+alpha*(cc-dn1))
		dn2 = math.Min(math.Min(c2, o2), dn2+alpha*(c2-dn2))

		bullRad := dn2 - dn1*dn1
		bearRad := up2 - up1*up1
		if bullRad < 0 || bearRad < 0 {
			return "", fmt.Errorf("andean: negative radicand: %w", ErrDegenerate)
		}
		bulls = math.Sqrt(bullRad)
		bears = math.Sqrt(bearRad)

		component := math.Max(bulls, bears)
		if !sigSeeded {
			signal = component
			sigSeeded = true
		} else {
			signal = signal + sigK*(component-signal)
		}
	}

	return tuple(fmtF(bulls), fmtF(bears), fmtF(signal)), nil
}
