package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Cache is the day-scoped indicator record: one hash per
// (interval, symbol, day), one field per indicator. Records are created on
// the first successful write of a day, mutated field-by-field as indicators
// finish, and never deleted explicitly — they expire.
type Cache struct {
	client *goredis.Client
	prefix string
}

// NewCache creates a cache under the market's key prefix.
func NewCache(client *goredis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) recordKey(interval, symbol, day string) string {
	return c.prefix + ":ind:" + interval + ":" + symbol + ":" + day
}

// Field returns one indicator's cached tuple, or "" when the field or the
// whole record is absent.
func (c *Cache) Field(ctx context.Context, interval, symbol, day, name string) (string, error) {
	v, err := c.client.HGet(ctx, c.recordKey(interval, symbol, day), name).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// WriteField sets one indicator's tuple and refreshes the record TTL so the
// record outlives the window it describes.
func (c *Cache) WriteField(ctx context.Context, interval, symbol, day, name, value string, ttl time.Duration) error {
	key := c.recordKey(interval, symbol, day)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, name, value)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Record returns the full indicator record for (interval, symbol, day).
// An absent record is an empty map, not an error.
func (c *Cache) Record(ctx context.Context, interval, symbol, day string) (map[string]string, error) {
	return c.client.HGetAll(ctx, c.recordKey(interval, symbol, day)).Result()
}
