// Package continuity validates a candle window before any indicator math runs.
//
// Four checks, in order: freshness against the current period start,
// step-size completeness, window sufficiency, and a same-calendar-day guard
// that keeps a computation from writing a cache record for a day that rolled
// over mid-flight. Any failure aborts that computation with no side effects.
package continuity

import (
	"errors"
	"fmt"
	"time"

	"signal-enginev1/internal/model"
)

// Validation failures. Staleness errors (ErrWaitingForFlush, ErrNotToday)
// resolve themselves on the next trigger; data-gap errors (ErrKlinesLost,
// ErrNotEnough) need upstream data to repair first.
var (
	ErrWaitingForFlush = errors.New("waiting for kline flush")
	ErrKlinesLost      = errors.New("klines lost")
	ErrNotEnough       = errors.New("not enough klines")
	ErrNotToday        = errors.New("kline is not today")
)

// IsStaleness reports whether err is a retry-later staleness failure.
func IsStaleness(err error) bool {
	return errors.Is(err, ErrWaitingForFlush) || errors.Is(err, ErrNotToday)
}

// IsDataGap reports whether err is a gap/insufficiency failure.
func IsDataGap(err error) bool {
	return errors.Is(err, ErrKlinesLost) || errors.Is(err, ErrNotEnough)
}

// Validator checks candle windows for continuity and freshness.
type Validator struct {
	grace time.Duration // how far behind the current period start the latest candle may lag
}

// NewValidator creates a validator with the given freshness grace period.
func NewValidator(grace time.Duration) *Validator {
	return &Validator{grace: grace}
}

// Validate checks a chronologically-ordered window of candles against the
// required window size and the interval step, relative to now.
func (v *Validator) Validate(candles []model.Candle, interval string, window int, now time.Time) error {
	step, ok := model.IntervalStep(interval)
	if !ok {
		return fmt.Errorf("unknown interval %q", interval)
	}
	if len(candles) < window {
		return fmt.Errorf("%w: have %d, want %d", ErrNotEnough, len(candles), window)
	}

	last := candles[len(candles)-1]

	// Freshness: the latest candle may be the previous period's while the
	// current one flushes, so the bound is one step behind the current
	// period start, padded by the grace window.
	periodStart := now.Truncate(step)
	if last.Time().Before(periodStart.Add(-step - v.grace)) {
		return fmt.Errorf("%w: last=%d periodStart=%d", ErrWaitingForFlush,
			last.Timestamp, periodStart.UnixMilli())
	}

	// Completeness: every consecutive pair differs by exactly one step.
	stepMs := step.Milliseconds()
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp-candles[i-1].Timestamp != stepMs {
			return fmt.Errorf("%w: gap between %d and %d", ErrKlinesLost,
				candles[i-1].Timestamp, candles[i].Timestamp)
		}
	}

	// Calendar guard: the cache record is day-scoped, so the latest candle
	// must still belong to today (UTC, same day key as the cache).
	if model.DayKey(last.Timestamp) != now.UTC().Format("20060102") {
		return fmt.Errorf("%w: candle day %s", ErrNotToday, model.DayKey(last.Timestamp))
	}

	return nil
}
