package pipeline

import (
	"strconv"
	"strings"

	"signal-enginev1/internal/model"
)

// deriveFunc turns one cached tuple (parsed to floats) plus the latest close
// into a directional reading. ATR carries no direction and has no deriver;
// its family is still represented by bbands.
type deriveFunc func(fields []float64, close float64) int

var derivers = map[string]deriveFunc{
	"zlema":          deriveZLEMA,
	"ha_zlema":       deriveZLEMA,
	"kdj":            deriveKDJ,
	"bbands":         deriveBBands,
	"ichimoku":       deriveIchimoku,
	"volume_profile": deriveVolumeProfile,
	"andean":         deriveAndean,
}

// parseTuple splits a cached tuple into floats. Any unparsable field makes
// the tuple unusable for derivation.
func parseTuple(value string) ([]float64, bool) {
	parts := strings.Split(value, ",")
	fields := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, false
		}
		fields[i] = f
	}
	return fields, true
}

// tuple: emaPrev, emaLast, firstPrice, ts — rising EMA with price above it
// reads long, falling with price below reads short.
func deriveZLEMA(fields []float64, close float64) int {
	if len(fields) < 2 {
		return model.SignalNone
	}
	emaPrev, emaLast := fields[0], fields[1]
	switch {
	case emaLast > emaPrev && close > emaLast:
		return model.SignalLong
	case emaLast < emaPrev && close < emaLast:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// tuple: k, d, j, firstTypical, ts — %K over %D reads long unless already
// overbought, under %D short unless oversold.
func deriveKDJ(fields []float64, _ float64) int {
	if len(fields) < 3 {
		return model.SignalNone
	}
	k, d := fields[0], fields[1]
	switch {
	case k > d && k < 80:
		return model.SignalLong
	case k < d && k > 20:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// tuple: b1,b2,b3,w1,w2,w3,firstTypical,ts — price outside the band mean-reverts.
func deriveBBands(fields []float64, _ float64) int {
	if len(fields) < 1 {
		return model.SignalNone
	}
	switch b1 := fields[0]; {
	case b1 < 0:
		return model.SignalLong
	case b1 > 1:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// tuple: signal,conversion,base,... — the cross signal is computed upstream.
func deriveIchimoku(fields []float64, _ float64) int {
	if len(fields) < 1 {
		return model.SignalNone
	}
	switch int(fields[0]) {
	case model.SignalLong:
		return model.SignalLong
	case model.SignalShort:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// tuple: vah,val,poc,pocRatio — close breaking out of the value area.
func deriveVolumeProfile(fields []float64, close float64) int {
	if len(fields) < 2 {
		return model.SignalNone
	}
	vah, val := fields[0], fields[1]
	switch {
	case close > vah:
		return model.SignalLong
	case close < val:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// tuple: bull,bear,signal — the dominant component must also clear the
// signal line.
func deriveAndean(fields []float64, _ float64) int {
	if len(fields) < 3 {
		return model.SignalNone
	}
	bull, bear, signal := fields[0], fields[1], fields[2]
	switch {
	case bull > bear && bull > signal:
		return model.SignalLong
	case bear > bull && bear > signal:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}
