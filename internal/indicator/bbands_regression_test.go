package indicator

import (
	"context"
	"testing"
	"time"

	"signal-enginev1/internal/continuity"
	"signal-enginev1/internal/model"
)

// bbandsFixture builds 100 gap-free 15m candles ending 2026-03-14T23:45Z
// with a fixed synthetic closing sequence.
func bbandsFixture(n int) []model.Candle {
	end := time.Date(2026, 3, 14, 23, 45, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		p := 100 + float64((i*i*7)%23)/2
		ts := end.Add(time.Duration(i-n+1) * 15 * time.Minute)
		candles[i] = model.Candle{
			Symbol: "BTCUSDT", Interval: "15m",
			Open: p, High: p, Low: p, Close: p,
			Volume: 1, Timestamp: ts.UnixMilli(),
		}
	}
	return candles
}

func TestBBands_RegressionFixture(t *testing.T) {
	got, err := BBands(bbandsFixture(100), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "0.7562601377419118,0.791091612774793,0.541940612199002," +
		"0.1343815841455803,0.1343815841455803,0.12801738542353153," +
		"100,1773531900000"
	if got != want {
		t.Fatalf("fixture drifted:\n got %s\nwant %s", got, want)
	}
}

func TestBBands_ShortWindowRejectedBeforeCompute(t *testing.T) {
	// 99 rows against a 100-candle requirement: the validator stops the
	// computation as a data gap and nothing reaches the cache.
	now := time.Date(2026, 3, 14, 23, 45, 30, 0, time.UTC)
	cache := newFakeCache()
	specs := []Spec{
		{Name: "bbands", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return BBands(w, 14)
		}},
	}
	engine := NewEngine(specs, continuity.NewValidator(time.Minute), cache, time.Minute)

	succeeded, err := engine.ComputeAll(context.Background(), "BTCUSDT", "15m", bbandsFixture(99), now)
	if succeeded != 0 {
		t.Fatalf("expected rejection on short window, %d succeeded", succeeded)
	}
	if !continuity.IsDataGap(err) {
		t.Fatalf("expected a data-gap error, got %v", err)
	}
	if len(cache.fields) != 0 {
		t.Fatalf("nothing may be cached on rejection, got %v", cache.fields)
	}
}
