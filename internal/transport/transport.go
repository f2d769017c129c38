// Package transport provides the two message-delivery abstractions the
// pipeline stages run on: a fire-and-forget broadcast broker and a durable
// at-least-once work queue. Stages only need "deliver this routing key to
// the next stage" — which transport carries it is a wiring decision.
package transport

import "context"

// Broker is fan-out publish/subscribe with no persistence. Publish is
// fire-and-forget; a message published with no live subscriber is lost.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe returns a channel of payloads for the topic. The channel
	// closes when ctx is cancelled.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
}

// Message is one popped queue entry. ID is the delivery handle used to
// delete the message after successful processing.
type Message struct {
	ID   string
	Body []byte
}

// Queue is a durable work queue with explicit deletion. A popped message
// that is never deleted becomes available again, giving at-least-once
// delivery. Send lazily creates a missing queue and retries once.
type Queue interface {
	Send(ctx context.Context, queue string, body []byte) error
	// Pop returns the next available message, or nil when the queue is empty.
	Pop(ctx context.Context, queue string) (*Message, error)
	Delete(ctx context.Context, queue string, msgID string) error
}
