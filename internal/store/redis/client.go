// Package redis holds the shared key-value store adapters: the day-scoped
// indicator record cache and the latest-price snapshot reads. The lock's key
// space lives in the same Redis but is owned by internal/lock.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// ClientConfig configures the shared Redis connection.
type ClientConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// NewClient connects to Redis and pings the server. An unreachable store is
// a startup misconfiguration and the only fatal error class.
func NewClient(cfg ClientConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return client, nil
}
