package bus

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemory_PublishOrder(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx := context.Background()
	sub, err := m.Subscribe(ctx, Topic("AAPL"))
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	const n = 100
	for i := 0; i < n; i++ {
		if err := m.Publish(ctx, Topic("AAPL"), []byte(fmt.Sprintf("msg-%d", i))); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	for i := 0; i < n; i++ {
		select {
		case got := <-sub.Messages():
			want := fmt.Sprintf("msg-%d", i)
			if string(got) != want {
				t.Fatalf("message %d = %q, want %q", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestMemory_NoSubscribers(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	// Publishing into the void is fine: discarded, not queued.
	if err := m.Publish(context.Background(), Topic("AAPL"), []byte("x")); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestMemory_SlowSubscriberDropsNotBlocks(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx := context.Background()
	sub, err := m.Subscribe(ctx, Topic("AAPL"))
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody drains the subscription; the publisher must not block.
		for i := 0; i < subscriptionBuffer*3; i++ {
			m.Publish(ctx, Topic("AAPL"), []byte("x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	if got := len(sub.Messages()); got != subscriptionBuffer {
		t.Errorf("buffered messages = %d, want %d", got, subscriptionBuffer)
	}
}

func TestMemory_IndependentSubscriptions(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx := context.Background()
	a, _ := m.Subscribe(ctx, Topic("AAPL"))
	b, _ := m.Subscribe(ctx, Topic("AAPL"))
	other, _ := m.Subscribe(ctx, Topic("TSLA"))

	m.Publish(ctx, Topic("AAPL"), []byte("apple"))

	for _, sub := range []Subscription{a, b} {
		select {
		case got := <-sub.Messages():
			if string(got) != "apple" {
				t.Errorf("payload = %q, want apple", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out")
		}
	}

	select {
	case got := <-other.Messages():
		t.Errorf("TSLA subscription received %q, want nothing", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemory_SubscriptionClose(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx := context.Background()
	sub, _ := m.Subscribe(ctx, Topic("AAPL"))

	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Channel is closed.
	if _, ok := <-sub.Messages(); ok {
		t.Error("Messages() open after Close()")
	}

	// Publishing after close must not panic.
	if err := m.Publish(ctx, Topic("AAPL"), []byte("x")); err != nil {
		t.Errorf("Publish() after subscriber close error = %v", err)
	}
}

func TestMemory_Close(t *testing.T) {
	m := NewMemory()
	sub, _ := m.Subscribe(context.Background(), Topic("AAPL"))

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, ok := <-sub.Messages(); ok {
		t.Error("subscription open after bus close")
	}
	if err := m.Ping(context.Background()); err != ErrClosed {
		t.Errorf("Ping() after close = %v, want ErrClosed", err)
	}
	if err := m.Publish(context.Background(), Topic("AAPL"), nil); err != ErrClosed {
		t.Errorf("Publish() after close = %v, want ErrClosed", err)
	}
}
