package indicator

import (
	"context"
	"testing"
	"time"

	"signal-enginev1/internal/continuity"
	"signal-enginev1/internal/model"
)

type fakeCache struct {
	fields map[string]string
	ttls   map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{fields: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) key(interval, symbol, day, name string) string {
	return interval + ":" + symbol + ":" + day + ":" + name
}

func (c *fakeCache) Field(_ context.Context, interval, symbol, day, name string) (string, error) {
	return c.fields[c.key(interval, symbol, day, name)], nil
}

func (c *fakeCache) WriteField(_ context.Context, interval, symbol, day, name, value string, ttl time.Duration) error {
	k := c.key(interval, symbol, day, name)
	c.fields[k] = value
	c.ttls[k] = ttl
	return nil
}

// engineWindow builds n fresh consecutive 1h candles ending at now's period.
func engineWindow(n int, now time.Time) []model.Candle {
	candles := make([]model.Candle, n)
	end := now.Truncate(time.Hour)
	for i := 0; i < n; i++ {
		p := 100 + float64(i%7)
		ts := end.Add(time.Duration(i-n+1) * time.Hour)
		candles[i] = model.Candle{
			Symbol: "BTCUSDT", Interval: "1h",
			Open: p - 1, High: p + 1, Low: p - 2, Close: p,
			Volume: 5, Timestamp: ts.UnixMilli(),
		}
	}
	return candles
}

func TestEngine_FailuresAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 30, 0, time.UTC)
	cache := newFakeCache()
	validator := continuity.NewValidator(time.Minute)

	specs := []Spec{
		{Name: "atr", Window: 10, Compute: func(w []model.Candle, _ string) (string, error) {
			return ATR(w, 3)
		}},
		{Name: "kdj", Window: 10, Compute: func(w []model.Candle, _ string) (string, error) {
			return KDJ(w, 3, 2)
		}},
		// Needs far more candles than the window provides: fails alone.
		{Name: "big", Window: 500, Compute: func(w []model.Candle, _ string) (string, error) {
			return ATR(w, 400)
		}},
	}
	engine := NewEngine(specs, validator, cache, time.Minute)

	succeeded, err := engine.ComputeAll(context.Background(), "BTCUSDT", "1h", engineWindow(20, now), now)
	if err != nil {
		t.Fatalf("a partially successful pass must not error, got %v", err)
	}
	if succeeded != 2 {
		t.Fatalf("expected 2 indicators to succeed, got %d", succeeded)
	}

	day := now.UTC().Format("20060102")
	if v, _ := cache.Field(context.Background(), "1h", "BTCUSDT", day, "atr"); v == "" {
		t.Fatal("atr field not written")
	}
	if v, _ := cache.Field(context.Background(), "1h", "BTCUSDT", day, "big"); v != "" {
		t.Fatalf("failed indicator must not write, got %q", v)
	}
}

func TestEngine_TTLCoversWindowPlusGrace(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 30, 0, time.UTC)
	cache := newFakeCache()
	validator := continuity.NewValidator(time.Minute)

	specs := []Spec{
		{Name: "atr", Window: 10, Compute: func(w []model.Candle, _ string) (string, error) {
			return ATR(w, 3)
		}},
	}
	engine := NewEngine(specs, validator, cache, 5*time.Minute)
	engine.ComputeAll(context.Background(), "BTCUSDT", "1h", engineWindow(20, now), now)

	day := now.UTC().Format("20060102")
	ttl := cache.ttls[cache.key("1h", "BTCUSDT", day, "atr")]
	want := 10*time.Hour + 5*time.Minute
	if ttl != want {
		t.Fatalf("expected ttl %s, got %s", want, ttl)
	}
}

func TestEngine_PrevTupleReachesCompute(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 30, 0, time.UTC)
	cache := newFakeCache()
	day := now.UTC().Format("20060102")
	cache.fields[cache.key("1h", "BTCUSDT", day, "stateful")] = "cached-state"

	var sawPrev string
	specs := []Spec{
		{Name: "stateful", Window: 5, Compute: func(_ []model.Candle, prev string) (string, error) {
			sawPrev = prev
			return "next-state", nil
		}},
	}
	engine := NewEngine(specs, continuity.NewValidator(time.Minute), cache, time.Minute)
	engine.ComputeAll(context.Background(), "BTCUSDT", "1h", engineWindow(20, now), now)

	if sawPrev != "cached-state" {
		t.Fatalf("expected cached tuple to reach compute, got %q", sawPrev)
	}
	if v := cache.fields[cache.key("1h", "BTCUSDT", day, "stateful")]; v != "next-state" {
		t.Fatalf("expected updated tuple in cache, got %q", v)
	}
}

func TestEngine_AllFailedSurfacesFirstError(t *testing.T) {
	// The whole window is one period stale: every indicator is skipped and
	// the validator's verdict comes back instead of a silent zero.
	now := time.Date(2026, 3, 14, 14, 30, 0, 0, time.UTC)
	cache := newFakeCache()
	specs := []Spec{
		{Name: "atr", Window: 10, Compute: func(w []model.Candle, _ string) (string, error) {
			return ATR(w, 3)
		}},
	}
	engine := NewEngine(specs, continuity.NewValidator(time.Minute), cache, time.Minute)

	stale := engineWindow(20, now.Add(-3*time.Hour))
	succeeded, err := engine.ComputeAll(context.Background(), "BTCUSDT", "1h", stale, now)
	if succeeded != 0 {
		t.Fatalf("expected 0 successes on a stale window, got %d", succeeded)
	}
	if !continuity.IsStaleness(err) {
		t.Fatalf("expected a staleness error, got %v", err)
	}
	if len(cache.fields) != 0 {
		t.Fatalf("nothing may be cached, got %v", cache.fields)
	}
}

func TestEngine_MaxWindow(t *testing.T) {
	engine := NewEngine(DefaultSpecs(), continuity.NewValidator(time.Minute), newFakeCache(), 0)
	if got := engine.MaxWindow(); got != 300 {
		t.Fatalf("expected max window 300, got %d", got)
	}
}
