package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/marketfeed/internal/bus"
	"github.com/rickgao/marketfeed/internal/model"
	"github.com/rickgao/marketfeed/internal/store"
)

// State is a session's position in its lifecycle. Transitions only
// move forward.
type State int

const (
	StateSubscribing State = iota
	StateStreaming
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transport is the session's downstream consumer.
type Transport interface {
	// Forward delivers one wire payload. Errors are counted and the
	// stream continues.
	Forward(payload []byte) error

	// CloseNotify is closed when the consumer goes away.
	CloseNotify() <-chan struct{}
}

// Config holds session tuning knobs.
type Config struct {
	// SubscribeAttempts bounds how many times Run tries to establish
	// the bus subscription before giving up.
	SubscribeAttempts int

	// SubscribeBaseWait is the first retry delay; it doubles per
	// attempt.
	SubscribeBaseWait time.Duration

	// WriteTimeout bounds each store append.
	WriteTimeout time.Duration
}

// DefaultConfig returns the production session tuning.
func DefaultConfig() Config {
	return Config{
		SubscribeAttempts: 3,
		SubscribeBaseWait: 250 * time.Millisecond,
		WriteTimeout:      5 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.SubscribeAttempts <= 0 {
		c.SubscribeAttempts = def.SubscribeAttempts
	}
	if c.SubscribeBaseWait <= 0 {
		c.SubscribeBaseWait = def.SubscribeBaseWait
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
}

// Stats is a point-in-time snapshot of one session's delivery counters.
type Stats struct {
	State         State
	Forwarded     uint64
	Persisted     uint64
	ForwardErrors uint64
	PersistErrors uint64
	DecodeErrors  uint64
}

// Session relays one symbol's events to one consumer.
type Session struct {
	ID     uuid.UUID
	symbol string
	cfg    Config

	bus       bus.Bus
	store     store.Store
	transport Transport
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	stats Stats
}

// NewSession creates a session for one symbol and one consumer.
func NewSession(symbol string, b bus.Bus, st store.Store, tr Transport, cfg Config, logger *slog.Logger) *Session {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Session{
		ID:        id,
		symbol:    symbol,
		cfg:       cfg,
		bus:       b,
		store:     st,
		transport: tr,
		logger:    logger.With("session_id", id.String(), "symbol", symbol),
	}
}

// Run drives the session until the context is cancelled or the
// consumer goes away. It returns a non-nil error only when the
// subscription could not be established.
func (s *Session) Run(ctx context.Context) error {
	sub, err := s.subscribe(ctx)
	if err != nil {
		s.setState(StateClosed)
		return err
	}
	defer func() {
		sub.Close()
		s.setState(StateClosed)
		s.logger.Info("session closed")
	}()

	s.setState(StateStreaming)
	s.logger.Info("session streaming")

	for {
		// Shutdown signals take priority over buffered payloads, so a
		// dead consumer never receives another forward.
		select {
		case <-ctx.Done():
			s.drain(sub)
			return nil
		case <-s.transport.CloseNotify():
			s.drain(sub)
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			s.drain(sub)
			return nil
		case <-s.transport.CloseNotify():
			s.drain(sub)
			return nil
		case payload, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			s.deliver(ctx, payload)
		}
	}
}

// subscribe establishes the bus subscription with a bounded number of
// attempts and a doubling retry wait.
func (s *Session) subscribe(ctx context.Context) (bus.Subscription, error) {
	topic := bus.Topic(s.symbol)
	wait := s.cfg.SubscribeBaseWait

	var lastErr error
	for attempt := 1; attempt <= s.cfg.SubscribeAttempts; attempt++ {
		sub, err := s.bus.Subscribe(ctx, topic)
		if err == nil {
			return sub, nil
		}
		lastErr = err
		s.logger.Warn("subscribe failed",
			"attempt", attempt,
			"max_attempts", s.cfg.SubscribeAttempts,
			"error", err)

		if attempt == s.cfg.SubscribeAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("subscribe %s: %w", topic, lastErr)
}

// drain finishes persistence for already-buffered payloads before the
// session closes. Forwarding has stopped; the consumer is gone.
func (s *Session) drain(sub bus.Subscription) {
	s.setState(StateDraining)
	for {
		select {
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			s.persist(context.Background(), payload)
		default:
			return
		}
	}
}

// deliver forwards a payload and persists its decoded event. The two
// paths fail independently.
func (s *Session) deliver(ctx context.Context, payload []byte) {
	if err := s.transport.Forward(payload); err != nil {
		s.mu.Lock()
		s.stats.ForwardErrors++
		s.mu.Unlock()
		s.logger.Warn("forward failed", "error", err)
	} else {
		s.mu.Lock()
		s.stats.Forwarded++
		s.mu.Unlock()
	}

	s.persist(ctx, payload)
}

func (s *Session) persist(ctx context.Context, payload []byte) {
	ev, err := model.Decode(payload)
	if err != nil {
		s.mu.Lock()
		s.stats.DecodeErrors++
		s.mu.Unlock()
		s.logger.Warn("decode failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	switch v := ev.(type) {
	case model.Quote:
		err = s.store.AppendQuote(ctx, v)
	case model.Trade:
		err = s.store.AppendTrade(ctx, v)
	}
	if err != nil {
		s.mu.Lock()
		s.stats.PersistErrors++
		s.mu.Unlock()
		s.logger.Warn("persist failed", "kind", ev.Kind(), "error", err)
		return
	}
	s.mu.Lock()
	s.stats.Persisted++
	s.mu.Unlock()
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the session's delivery counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.State = s.state
	return st
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// States only move forward.
	if next > s.state {
		s.state = next
	}
}
