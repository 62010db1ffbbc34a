package bus

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// subscriptionBuffer is the per-subscription channel depth. A relay
// session that cannot drain this many messages loses the overflow.
const subscriptionBuffer = 256

// RedisConfig configures the Redis-backed bus.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Bus backed by Redis pub/sub, one channel per topic.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Bus = (*Redis)(nil)

// NewRedis creates a Redis-backed bus. The connection is lazy; use
// Ping to verify reachability.
func NewRedis(cfg RedisConfig, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger,
	}
}

// Publish sends a payload to a topic, fire-and-forget.
func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	return r.client.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a pub/sub subscription for one topic. The returned
// subscription pumps payloads in publish order; slow consumers lose
// messages rather than blocking the pump.
func (r *Redis) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := r.client.Subscribe(ctx, topic)

	// Wait for the subscription confirmation so order is guaranteed
	// from the moment Subscribe returns.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps:  ps,
		out: make(chan []byte, subscriptionBuffer),
	}
	go sub.pump(r.logger.With("topic", topic))

	return sub, nil
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client and all its subscriptions.
func (r *Redis) Close() error {
	return r.client.Close()
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan []byte
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	// Closing the PubSub closes its channel, which ends the pump.
	return s.ps.Close()
}

// pump copies payloads from the pub/sub channel to the output channel.
func (s *redisSubscription) pump(logger *slog.Logger) {
	defer close(s.out)

	for msg := range s.ps.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		default:
			logger.Warn("subscriber lagging, dropping message")
		}
	}
}
