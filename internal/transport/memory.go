package transport

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"
)

// MemoryBroker is an in-process Broker. If a subscriber's channel is full,
// the message is dropped for that subscriber to keep a slow consumer from
// blocking the pipeline.
type MemoryBroker struct {
	mu      sync.RWMutex
	subs    map[string][]chan []byte
	bufSize int
}

// NewMemoryBroker creates a broker with the given per-subscriber buffer size.
func NewMemoryBroker(bufSize int) *MemoryBroker {
	return &MemoryBroker{
		subs:    make(map[string][]chan []byte),
		bufSize: bufSize,
	}
}

// Publish delivers the payload to every current subscriber of topic.
func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i, ch := range b.subs[topic] {
		select {
		case ch <- payload:
		default:
			log.Printf("[broker] subscriber %d for %s full, dropping message", i, topic)
		}
	}
	return nil
}

// Subscribe registers a new subscriber channel for topic.
func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte, b.bufSize)
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subs[topic]
		for i, c := range subs {
			if c == ch {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

type memMessage struct {
	id       string
	body     []byte
	inflight bool
	deadline time.Time
}

// MemoryQueue is an in-process Queue with SQS-like visibility semantics:
// a popped message is invisible until its visibility timeout lapses, then
// becomes eligible for redelivery unless deleted first.
type MemoryQueue struct {
	mu         sync.Mutex
	queues     map[string][]*memMessage
	visibility time.Duration
	seq        int64
}

// NewMemoryQueue creates a queue service with the given visibility timeout.
func NewMemoryQueue(visibility time.Duration) *MemoryQueue {
	return &MemoryQueue{
		queues:     make(map[string][]*memMessage),
		visibility: visibility,
	}
}

// Send appends the body to the queue, creating the queue on first use.
func (q *MemoryQueue) Send(_ context.Context, queue string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	q.queues[queue] = append(q.queues[queue], &memMessage{
		id:   strconv.FormatInt(q.seq, 10),
		body: body,
	})
	return nil
}

// Pop returns the oldest visible message, or nil when none is available.
func (q *MemoryQueue) Pop(_ context.Context, queue string) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, m := range q.queues[queue] {
		if m.inflight && now.Before(m.deadline) {
			continue
		}
		m.inflight = true
		m.deadline = now.Add(q.visibility)
		return &Message{ID: m.id, Body: m.body}, nil
	}
	return nil, nil
}

// Delete removes a popped message permanently.
func (q *MemoryQueue) Delete(_ context.Context, queue string, msgID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.queues[queue]
	for i, m := range msgs {
		if m.id == msgID {
			q.queues[queue] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return nil
}
