package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"signal-enginev1/internal/model"
)

// Ichimoku computes the cloud lines over typical prices. Conversion and base
// are windowed averages of the typical price, not the conventional high/low
// midpoints — this matches the observed behavior the rest of the signal
// chain depends on, so it must not be "fixed".
//
// Signal: 1 when conversion crosses above base relative to the previous
// step, 2 when it crosses below, 0 otherwise. When the one-step re-test sees
// no cross, the previous conversion/base recovered from the cached tuple (if
// any) is re-tested so cross detection survives process restarts.
//
// Cached tuple: "signal,conversion,base,senkouA,senkouB,chikou,firstTypical,ts".
func Ichimoku(candles []model.Candle, tenkan, kijun, senkou int, prev string) (string, error) {
	prices := typicals(candles)
	if len(prices) < senkou+1 {
		return "", fmt.Errorf("ichimoku: window %d too small for senkou period %d", len(prices), senkou)
	}

	n := len(prices)
	conversion := mean(prices[n-tenkan:])
	base := mean(prices[n-kijun:])
	senkouA := (conversion + base) / 2
	senkouB := mean(prices[n-senkou:])

	lo, hi := minMax(prices[n-kijun:])
	chikou := (lo + hi) / 2

	// Cross against the previous step first.
	prevConversion := mean(prices[n-tenkan-1 : n-1])
	prevBase := mean(prices[n-kijun-1 : n-1])
	signal := crossSignal(prevConversion, prevBase, conversion, base)

	// No cross this step: re-test against the cached previous state, so a
	// cross that happened across a restart is still reported once.
	if signal == model.SignalNone && prev != "" {
		if cc, cb, ok := parsePrevIchimoku(prev); ok {
			signal = crossSignal(cc, cb, conversion, base)
		}
	}

	last := candles[len(candles)-1]
	return tuple(
		strconv.Itoa(signal),
		fmtF(conversion), fmtF(base),
		fmtF(senkouA), fmtF(senkouB), fmtF(chikou),
		fmtF(prices[0]), fmtI(last.Timestamp),
	), nil
}

func crossSignal(prevConv, prevBase, conv, base float64) int {
	switch {
	case prevConv <= prevBase && conv > base:
		return model.SignalLong
	case prevConv >= prevBase && conv < base:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// parsePrevIchimoku recovers conversion and base from a cached tuple.
func parsePrevIchimoku(prev string) (conversion, base float64, ok bool) {
	fields := strings.Split(prev, ",")
	if len(fields) < 3 {
		return 0, 0, false
	}
	conversion, err1 := strconv.ParseFloat(fields[1], 64)
	base, err2 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return conversion, base, true
}
