package indicator

import (
	"context"
	"fmt"
	"log"
	"time"

	"signal-enginev1/internal/continuity"
	"signal-enginev1/internal/model"
)

// Cache is the day-scoped indicator record the engine writes into.
// Field returns "" with no error when the field (or the record) is absent.
type Cache interface {
	Field(ctx context.Context, interval, symbol, day, name string) (string, error)
	WriteField(ctx context.Context, interval, symbol, day, name, value string, ttl time.Duration) error
}

// Engine runs a battery of indicator computations over one candle window and
// writes each result into the cache record for (interval, symbol, today).
// Each indicator validates and fails independently: a stale window or a
// degenerate input aborts that one indicator, never its siblings.
type Engine struct {
	specs     []Spec
	validator *continuity.Validator
	cache     Cache
	ttlGrace  time.Duration
}

// NewEngine creates an engine over the given indicator specs.
// ttlGrace pads the cache record TTL past the window it describes.
func NewEngine(specs []Spec, validator *continuity.Validator, cache Cache, ttlGrace time.Duration) *Engine {
	return &Engine{specs: specs, validator: validator, cache: cache, ttlGrace: ttlGrace}
}

// ComputeAll runs every spec against the window (chronological order,
// most-recent last) and returns how many indicators succeeded. When nothing
// succeeded, the first failure comes back as the error so callers can tell
// a stale or gappy window from a healthy no-op.
func (e *Engine) ComputeAll(ctx context.Context, symbol, interval string, candles []model.Candle, now time.Time) (int, error) {
	step, ok := model.IntervalStep(interval)
	if !ok {
		return 0, fmt.Errorf("unknown interval %q", interval)
	}
	day := now.UTC().Format("20060102")

	succeeded := 0
	var firstErr error
	for _, spec := range e.specs {
		window := candles
		if len(window) > spec.Window {
			window = window[len(window)-spec.Window:]
		}

		if err := e.validator.Validate(window, interval, spec.Window, now); err != nil {
			log.Printf("[indicator] %s %s:%s skipped: %v", spec.Name, symbol, interval, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		prev, err := e.cache.Field(ctx, interval, symbol, day, spec.Name)
		if err != nil {
			log.Printf("[indicator] %s %s:%s cache read: %v", spec.Name, symbol, interval, err)
			prev = ""
		}

		value, err := spec.Compute(window, prev)
		if err != nil {
			log.Printf("[indicator] %s %s:%s compute failed: %v", spec.Name, symbol, interval, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ttl := time.Duration(spec.Window)*step + e.ttlGrace
		if err := e.cache.WriteField(ctx, interval, symbol, day, spec.Name, value, ttl); err != nil {
			log.Printf("[indicator] %s %s:%s cache write: %v", spec.Name, symbol, interval, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return 0, firstErr
	}
	return succeeded, nil
}

// MaxWindow returns the largest window any spec needs, i.e. how many candles
// the caller should read from the store of record.
func (e *Engine) MaxWindow() int {
	max := 0
	for _, spec := range e.specs {
		if spec.Window > max {
			max = spec.Window
		}
	}
	return max
}

// DefaultSpecs returns the standard indicator battery.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "atr", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return ATR(w, 14)
		}},
		{Name: "zlema", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return ZLEMA(w, 25)
		}},
		{Name: "ha_zlema", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return HAZLEMA(w, 25)
		}},
		{Name: "kdj", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return KDJ(w, 9, 3)
		}},
		{Name: "bbands", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return BBands(w, 14)
		}},
		{Name: "ichimoku", Window: 120, Compute: func(w []model.Candle, prev string) (string, error) {
			return Ichimoku(w, 9, 26, 52, prev)
		}},
		{Name: "volume_profile", Window: 100, Compute: func(w []model.Candle, _ string) (string, error) {
			return VolumeProfile(w, 100)
		}},
		{Name: "andean", Window: 300, Compute: func(w []model.Candle, _ string) (string, error) {
			return Andean(w, 50, 9)
		}},
	}
}
