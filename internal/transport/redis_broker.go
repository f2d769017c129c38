package transport

import (
	"context"
	"log"

	goredis "github.com/go-redis/redis/v8"
)

// RedisBroker implements Broker over Redis pub/sub.
type RedisBroker struct {
	client *goredis.Client
}

// NewRedisBroker creates a broker over an existing Redis client.
func NewRedisBroker(client *goredis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends the payload to every live subscriber of topic.
func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a pub/sub subscription and forwards payloads until ctx is
// cancelled.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	pubsub := b.client.Subscribe(ctx, topic)
	// Receive forces the subscription to be established before we return,
	// so the caller never publishes into a not-yet-subscribed topic.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan []byte, 256)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					log.Printf("[broker] subscriber for %s full, dropping message", topic)
				}
			}
		}
	}()
	return out, nil
}
