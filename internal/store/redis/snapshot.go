package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/go-redis/redis/v8"
)

// Snapshot reads the latest market price the ingestion side keeps in the
// shared store. Placement uses it to reject plans whose price has drifted.
type Snapshot struct {
	client *goredis.Client
	prefix string
}

// NewSnapshot creates a snapshot reader under the market's key prefix.
func NewSnapshot(client *goredis.Client, prefix string) *Snapshot {
	return &Snapshot{client: client, prefix: prefix}
}

// LatestPrice returns the most recent price for symbol, or ok=false when no
// snapshot exists yet.
func (s *Snapshot) LatestPrice(ctx context.Context, symbol string) (float64, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+":price:"+symbol).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	price, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("snapshot parse %s: %w", symbol, err)
	}
	return price, true, nil
}
