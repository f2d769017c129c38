// Package lock provides a TTL-bound distributed mutex over Redis.
//
// The key's existence is the lock; its value is the holder's token. A crashed
// holder self-expires at TTL. Contention is not retried inline: callers treat
// a failed acquire as "someone else owns this unit of work" and return.
package lock

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only while it still holds the caller's token,
// atomically, so a lock that expired and was re-acquired is never released
// out from under its new holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires and releases per-key locks in a shared Redis.
type Locker struct {
	client *goredis.Client
}

// New creates a Locker over an existing Redis client.
func New(client *goredis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire tries to take the lock for key with the given TTL. On success it
// returns the owner token and true; on contention it returns "" and false.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if token still owns it. Returns true when the key
// was deleted, false when the lock expired or belongs to someone else.
func (l *Locker) Release(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
