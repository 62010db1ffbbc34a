package bus

import (
	"context"
	"errors"
)

// Errors
var (
	ErrClosed = errors.New("bus closed")
)

// topicPrefix namespaces market event channels.
const topicPrefix = "market:"

// Topic returns the bus topic for a symbol.
func Topic(symbol string) string {
	return topicPrefix + symbol
}

// Bus is an at-most-once publish/subscribe transport.
type Bus interface {
	// Publish sends a payload to a topic, fire-and-forget. A publish
	// with no subscribers succeeds and the payload is discarded.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe opens a subscription yielding payloads for a topic in
	// publish order.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Ping reports whether the bus is reachable.
	Ping(ctx context.Context) error

	// Close releases the bus and all its subscriptions.
	Close() error
}

// Subscription is one subscriber's handle on a topic.
type Subscription interface {
	// Messages yields payloads in publish order. The channel is closed
	// when the subscription is closed or the bus shuts down.
	Messages() <-chan []byte

	// Close releases the subscription.
	Close() error
}
