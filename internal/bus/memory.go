package bus

import (
	"context"
	"sync"
)

// Memory is an in-process Bus for tests and single-process runs. It
// preserves per-topic publish order and drops messages for subscribers
// that fall behind, matching the at-most-once contract.
type Memory struct {
	mu     sync.Mutex
	topics map[string][]*memorySubscription
	closed bool
}

var _ Bus = (*Memory)(nil)

// NewMemory creates an in-process bus.
func NewMemory() *Memory {
	return &Memory{
		topics: make(map[string][]*memorySubscription),
	}
}

// Publish fans a payload out to the topic's subscribers. Subscribers
// with full buffers lose the message; the publisher never blocks.
func (m *Memory) Publish(_ context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for _, sub := range m.topics[topic] {
		select {
		case sub.ch <- payload:
		default:
			// Slow subscriber, at-most-once: drop.
		}
	}
	return nil
}

// Subscribe opens an independent subscription on a topic.
func (m *Memory) Subscribe(_ context.Context, topic string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		bus:   m,
		topic: topic,
		ch:    make(chan []byte, subscriptionBuffer),
	}
	m.topics[topic] = append(m.topics[topic], sub)
	return sub, nil
}

// Ping reports whether the bus is open.
func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close shuts the bus down and closes every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for _, subs := range m.topics {
		for _, sub := range subs {
			sub.closeOnce.Do(func() { close(sub.ch) })
		}
	}
	m.topics = make(map[string][]*memorySubscription)
	return nil
}

// remove detaches a subscription from its topic.
func (m *Memory) remove(target *memorySubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.topics[target.topic]
	for i, sub := range subs {
		if sub == target {
			m.topics[target.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(m.topics[target.topic]) == 0 {
		delete(m.topics, target.topic)
	}
}

type memorySubscription struct {
	bus       *Memory
	topic     string
	ch        chan []byte
	closeOnce sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.bus.remove(s)
	s.closeOnce.Do(func() { close(s.ch) })
	return nil
}
