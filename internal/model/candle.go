package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLCV sample for a symbol at a fixed interval.
// Timestamp is the bucket open time in milliseconds since epoch (UTC).
// Quota is the quote-asset turnover reported alongside the base volume.
type Candle struct {
	Symbol    string  `json:"symbol" db:"symbol"`
	Interval  string  `json:"interval" db:"interval"`
	Open      float64 `json:"open" db:"open"`
	High      float64 `json:"high" db:"high"`
	Low       float64 `json:"low" db:"low"`
	Close     float64 `json:"close" db:"close"`
	Volume    float64 `json:"volume" db:"volume"`
	Quota     float64 `json:"quota" db:"quota"`
	Timestamp int64   `json:"timestamp" db:"timestamp"`
}

// Key returns a unique key for this candle's series: "symbol:interval".
func (c *Candle) Key() string {
	return c.Symbol + ":" + c.Interval
}

// Time returns the bucket open time as UTC time.
func (c *Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// TypicalPrice returns (close+high+low)/3.
func (c *Candle) TypicalPrice() float64 {
	return (c.Close + c.High + c.Low) / 3
}

// AvgPrice returns (open+close+high+low)/4, the Heikin-Ashi close.
func (c *Candle) AvgPrice() float64 {
	return (c.Open + c.Close + c.High + c.Low) / 4
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// ReverseCandles flips a most-recent-first window into chronological order
// in place. Store reads return newest first; indicator math wants oldest first.
func ReverseCandles(candles []Candle) {
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
}
