package indicator

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

var testEnd = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// flatCandles builds n candles where open=high=low=close=price, so the
// typical, average, and close series all equal price.
func flatCandles(prices []float64) []model.Candle {
	candles := make([]model.Candle, len(prices))
	for i, p := range prices {
		ts := testEnd.Add(time.Duration(i-len(prices)+1) * time.Hour)
		candles[i] = model.Candle{
			Symbol: "BTCUSDT", Interval: "1h",
			Open: p, High: p, Low: p, Close: p,
			Volume: 1, Timestamp: ts.UnixMilli(),
		}
	}
	return candles
}

func fields(t *testing.T, tuple string, want int) []string {
	t.Helper()
	parts := strings.Split(tuple, ",")
	if len(parts) != want {
		t.Fatalf("expected %d tuple fields, got %d in %q", want, len(parts), tuple)
	}
	return parts
}

func parseF(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("unparsable tuple field %q: %v", s, err)
	}
	return v
}

func TestATR_ConstantTrueRange(t *testing.T) {
	// Every candle spans 100..110 and closes inside the range, so the true
	// range is 10 throughout and both the SMA seed and the Wilder smoothing
	// must hold it there.
	candles := make([]model.Candle, 10)
	for i := range candles {
		candles[i] = model.Candle{
			Open: 105, High: 110, Low: 100, Close: 105,
			Timestamp: testEnd.Add(time.Duration(i-9) * time.Hour).UnixMilli(),
		}
	}

	got, err := ATR(candles, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "10" {
		t.Fatalf("expected ATR=10, got %q", got)
	}
}

func TestATR_WindowTooSmall(t *testing.T) {
	if _, err := ATR(flatCandles([]float64{1, 2, 3}), 3); err == nil {
		t.Fatal("expected window error")
	}
}

func TestZLEMA_FlatSeries(t *testing.T) {
	got, err := ZLEMA(flatCandles([]float64{100, 100, 100, 100, 100, 100}), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 4)
	if f[0] != "100" || f[1] != "100" {
		t.Fatalf("flat series must hold the EMA at 100, got prev=%s last=%s", f[0], f[1])
	}
	if f[2] != "100" {
		t.Fatalf("expected firstPrice=100, got %s", f[2])
	}
}

func TestZLEMA_RisingSeries(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	got, err := ZLEMA(flatCandles(prices), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 4)
	prev, last := parseF(t, f[0]), parseF(t, f[1])
	if last <= prev {
		t.Fatalf("rising series must lift the EMA: prev=%v last=%v", prev, last)
	}
	// The de-lagged input overshoots the price, so the zero-lag EMA should
	// track a rising close much closer than a plain EMA would.
	if last < prices[len(prices)-1]-2 {
		t.Fatalf("zlema lagging too far behind: last=%v close=%v", last, prices[len(prices)-1])
	}
}

func TestKDJ_TopOfRange(t *testing.T) {
	// A strictly rising series keeps the latest price at the top of every
	// stochastic window: %K = %D = %J = 100.
	got, err := KDJ(flatCandles([]float64{1, 2, 3, 4}), 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 5)
	if f[0] != "100" || f[1] != "100" || f[2] != "100" {
		t.Fatalf("expected k=d=j=100, got k=%s d=%s j=%s", f[0], f[1], f[2])
	}
}

func TestKDJ_FlatRangeDegenerate(t *testing.T) {
	_, err := KDJ(flatCandles([]float64{5, 5, 5, 5, 5}), 3, 2)
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate on flat range, got %v", err)
	}
}

func TestBBands_PercentBReflectsPosition(t *testing.T) {
	// Last price sits above the window mean, so %B for the most recent
	// period must land in the upper half of the band.
	prices := []float64{10, 11, 10, 11, 10, 11, 10, 10, 11, 12}
	got, err := BBands(flatCandles(prices), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 8)
	b1 := parseF(t, f[0])
	if b1 <= 0.5 {
		t.Fatalf("price above mean must give %%B > 0.5, got %v", b1)
	}
	w1 := parseF(t, f[3])
	if w1 <= 0 {
		t.Fatalf("band width must be positive, got %v", w1)
	}
}

func TestBBands_ZeroWidthDegenerate(t *testing.T) {
	_, err := BBands(flatCandles([]float64{7, 7, 7, 7, 7, 7, 7}), 5)
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate on zero-width band, got %v", err)
	}
}

func TestIchimoku_CrossAbove(t *testing.T) {
	// The final jump lifts the short average over the long one within a
	// single step: a long cross.
	got, err := Ichimoku(flatCandles([]float64{10, 10, 10, 10, 20}), 2, 3, 4, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 8)
	if f[0] != "1" {
		t.Fatalf("expected long cross signal 1, got %s", f[0])
	}
	conv, base := parseF(t, f[1]), parseF(t, f[2])
	if conv <= base {
		t.Fatalf("conversion must sit above base after the cross: conv=%v base=%v", conv, base)
	}
}

func TestIchimoku_CrossRecoveredFromCache(t *testing.T) {
	// No cross within the window's last step, but the cached state from the
	// previous run sits on the other side of the base line: the cross still
	// fires once.
	prices := []float64{10, 10, 10, 20, 20}
	got, err := Ichimoku(flatCandles(prices), 2, 3, 4, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f := fields(t, got, 8); f[0] != "0" {
		t.Fatalf("precondition failed: expected no step cross, got signal %s", f[0])
	}

	prev := "0,12,13,0,0,0,10,0" // cached conversion 12 under base 13
	got, err = Ichimoku(flatCandles(prices), 2, 3, 4, prev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f := fields(t, got, 8); f[0] != "1" {
		t.Fatalf("expected cross recovered from cached state, got signal %s", f[0])
	}
}

func TestIchimoku_GarbageCacheIgnored(t *testing.T) {
	got, err := Ichimoku(flatCandles([]float64{10, 10, 10, 20, 20}), 2, 3, 4, "not,a tuple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f := fields(t, got, 8); f[0] != "0" {
		t.Fatalf("unparsable cache must not invent a cross, got signal %s", f[0])
	}
}

func TestVolumeProfile_DominantSegment(t *testing.T) {
	// Nine candles trade near 100 and one near 200: the low segment holds
	// 90% of the volume, so the POC lands there and the value area
	// collapses onto that single segment.
	candles := make([]model.Candle, 10)
	for i := range candles {
		p := 100.0
		if i == 9 {
			p = 200.0
		}
		ts := testEnd.Add(time.Duration(i-9) * time.Hour)
		candles[i] = model.Candle{
			Open: p, High: p, Low: p, Close: p,
			Volume: 10, Timestamp: ts.UnixMilli(),
		}
	}

	got, err := VolumeProfile(candles, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 4)
	vah, val, poc := parseF(t, f[0]), parseF(t, f[1]), parseF(t, f[2])

	segWidth := (200.0 - 100.0) / 100
	wantPOC := 100 + segWidth/2
	if math.Abs(poc-wantPOC) > 1e-9 {
		t.Fatalf("expected POC at %v, got %v", wantPOC, poc)
	}
	if vah != val {
		t.Fatalf("single-segment value area must collapse: vah=%v val=%v", vah, val)
	}
	if f[3] != "0" {
		t.Fatalf("collapsed value area must give pocRatio=0, got %s", f[3])
	}
}

func TestVolumeProfile_HalfHourDedup(t *testing.T) {
	// Two candles in the same half-hour-of-day land in the same price
	// segment: only the first contributes volume, so a third price level
	// elsewhere outweighs them.
	ts := testEnd
	candles := []model.Candle{
		{Open: 100, High: 100, Low: 100, Close: 100, Volume: 50, Timestamp: ts.UnixMilli()},
		{Open: 100, High: 100, Low: 100, Close: 100, Volume: 50, Timestamp: ts.Add(24 * time.Hour).UnixMilli()}, // same slot next day
		{Open: 200, High: 200, Low: 200, Close: 200, Volume: 60, Timestamp: ts.Add(time.Hour).UnixMilli()},
	}

	got, err := VolumeProfile(candles, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 4)
	poc := parseF(t, f[2])
	if poc < 150 {
		t.Fatalf("deduped low segment (50) must lose to high segment (60), POC=%v", poc)
	}
}

func TestVolumeProfile_FlatRangeDegenerate(t *testing.T) {
	_, err := VolumeProfile(flatCandles([]float64{5, 5, 5}), 3)
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate on flat range, got %v", err)
	}
}

func TestAndean_DojiSeriesIsZero(t *testing.T) {
	// Open == close at a constant price pins both envelopes to the price:
	// every component and the signal line stay at zero.
	got, err := Andean(flatCandles([]float64{50, 50, 50, 50, 50, 50}), 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0,0,0" {
		t.Fatalf("expected 0,0,0 for doji series, got %q", got)
	}
}

func TestAndean_ComponentsNonNegative(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/5)
	}
	candles := flatCandles(prices)
	for i := range candles {
		candles[i].Open = candles[i].Close - 1 // every candle closes up
	}

	got, err := Andean(candles, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fields(t, got, 3)
	for i, name := range []string{"bull", "bear", "signal"} {
		if v := parseF(t, f[i]); v < 0 || math.IsNaN(v) {
			t.Fatalf("%s component must be a non-negative number, got %v", name, v)
		}
	}
}
