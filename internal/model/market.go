package model

import "strconv"

// Market identifies which venue variant a worker serves. The pipeline is one
// generic implementation; spot and futures differ only in this config.
type Market struct {
	Name        string // "spot" or "futures"
	KeyPrefix   string // redis key namespace, e.g. "spot"
	TopicPrefix string // broker topic namespace, e.g. "spot"
	QueueName   string // durable queue for placement messages
	FilterTable string // symbol filter source in the store of record
}

// Topic names one stage-transition topic within this market's namespace.
func (m Market) Topic(stage string) string {
	return m.TopicPrefix + ":" + stage
}

// LockKey names one exclusivity domain: "market:stage:interval:symbol".
func (m Market) LockKey(stage, interval, symbol string) string {
	return m.KeyPrefix + ":lock:" + stage + ":" + interval + ":" + symbol
}

// PlanLockKey names the per-plan exclusivity domain used by placement.
func (m Market) PlanLockKey(planID int64) string {
	return m.KeyPrefix + ":lock:plan:" + strconv.FormatInt(planID, 10)
}

// SpotMarket returns the spot market config.
func SpotMarket() Market {
	return Market{
		Name:        "spot",
		KeyPrefix:   "spot",
		TopicPrefix: "spot",
		QueueName:   "spot-plans",
		FilterTable: "spot_symbols",
	}
}

// FuturesMarket returns the futures market config.
func FuturesMarket() Market {
	return Market{
		Name:        "futures",
		KeyPrefix:   "futures",
		TopicPrefix: "futures",
		QueueName:   "futures-plans",
		FilterTable: "futures_symbols",
	}
}

// MarketByName resolves a market config from its name, defaulting to spot.
func MarketByName(name string) Market {
	if name == "futures" {
		return FuturesMarket()
	}
	return SpotMarket()
}
