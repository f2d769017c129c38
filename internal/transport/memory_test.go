package transport

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBroker_FanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker(4)
	ch1, _ := b.Subscribe(ctx, "spot:klines")
	ch2, _ := b.Subscribe(ctx, "spot:klines")
	other, _ := b.Subscribe(ctx, "futures:klines")

	if err := b.Publish(ctx, "spot:klines", []byte("evt")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, ch := range []<-chan []byte{ch1, ch2} {
		select {
		case got := <-ch:
			if string(got) != "evt" {
				t.Fatalf("subscriber %d: expected evt, got %q", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no delivery", i)
		}
	}

	select {
	case got := <-other:
		t.Fatalf("foreign topic received %q", got)
	default:
	}
}

func TestMemoryBroker_DropOnFullBuffer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker(1)
	ch, _ := b.Subscribe(ctx, "t")

	b.Publish(ctx, "t", []byte("first"))
	b.Publish(ctx, "t", []byte("second")) // buffer full, dropped

	if got := <-ch; string(got) != "first" {
		t.Fatalf("expected first, got %q", got)
	}
	select {
	case got := <-ch:
		t.Fatalf("second message should have been dropped, got %q", got)
	default:
	}
}

func TestMemoryQueue_DeleteStopsRedelivery(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(10 * time.Millisecond)

	q.Send(ctx, "plans", []byte("p1"))

	msg, err := q.Pop(ctx, "plans")
	if err != nil || msg == nil {
		t.Fatalf("expected a message, got msg=%v err=%v", msg, err)
	}
	if err := q.Delete(ctx, "plans", msg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if msg, _ := q.Pop(ctx, "plans"); msg != nil {
		t.Fatalf("deleted message redelivered: %q", msg.Body)
	}
}

func TestMemoryQueue_RedeliveryAfterVisibilityTimeout(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(10 * time.Millisecond)

	q.Send(ctx, "plans", []byte("p1"))

	first, _ := q.Pop(ctx, "plans")
	if first == nil {
		t.Fatal("expected a message")
	}
	// In flight: invisible to other consumers.
	if msg, _ := q.Pop(ctx, "plans"); msg != nil {
		t.Fatal("in-flight message must be invisible")
	}

	time.Sleep(20 * time.Millisecond)
	second, _ := q.Pop(ctx, "plans")
	if second == nil {
		t.Fatal("undeleted message must come back after the visibility timeout")
	}
	if second.ID != first.ID || string(second.Body) != "p1" {
		t.Fatalf("redelivery changed the message: %v vs %v", second, first)
	}
}

func TestMemoryQueue_FIFOAcrossVisibleMessages(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(time.Minute)

	q.Send(ctx, "plans", []byte("a"))
	q.Send(ctx, "plans", []byte("b"))

	m1, _ := q.Pop(ctx, "plans")
	m2, _ := q.Pop(ctx, "plans")
	if string(m1.Body) != "a" || string(m2.Body) != "b" {
		t.Fatalf("expected a then b, got %q then %q", m1.Body, m2.Body)
	}
}
