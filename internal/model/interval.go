package model

import "time"

// Supported kline intervals and their step sizes.
var intervalSteps = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalStep returns the step size for an interval string and whether the
// interval is known. Unknown intervals are skipped by callers, never guessed.
func IntervalStep(interval string) (time.Duration, bool) {
	d, ok := intervalSteps[interval]
	return d, ok
}

// IntervalStepMillis returns the step size in milliseconds, or 0 if unknown.
func IntervalStepMillis(interval string) int64 {
	d, ok := intervalSteps[interval]
	if !ok {
		return 0
	}
	return d.Milliseconds()
}

// DayKey formats a millisecond timestamp as the cache day key (UTC).
func DayKey(tsMillis int64) string {
	return time.UnixMilli(tsMillis).UTC().Format("20060102")
}
