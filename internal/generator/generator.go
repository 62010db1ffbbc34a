package generator

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/rickgao/marketfeed/internal/bus"
	"github.com/rickgao/marketfeed/internal/model"
	"github.com/rickgao/marketfeed/internal/price"
)

// Config holds generator settings.
type Config struct {
	TradeProbability  float64       // per-symbol per-cycle trade chance
	MinCycleDelay     time.Duration // jittered sleep lower bound
	MaxCycleDelay     time.Duration // jittered sleep upper bound
	ReconnectBaseWait time.Duration // first reconnect wait
	ReconnectMaxWait  time.Duration // reconnect wait cap
	Seed              int64         // jitter/trade-draw seed (0 = time-based)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TradeProbability:  0.7,
		MinCycleDelay:     100 * time.Millisecond,
		MaxCycleDelay:     1 * time.Second,
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
	}
}

// Stats is a snapshot of generator counters.
type Stats struct {
	Cycles          int64
	QuotesPublished int64
	TradesPublished int64
	PublishErrors   int64
	Reconnects      int64
	Connected       bool
}

// Generator drives continuous event production until cancelled.
type Generator struct {
	cfg    Config
	proc   *price.Process
	bus    bus.Bus
	logger *slog.Logger
	rng    *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Bus connectivity state, owned by the run goroutine.
	connected bool
	retryWait time.Duration
	nextRetry time.Time

	mu    sync.Mutex
	stats Stats
}

// New creates a generator owning the given price process.
func New(cfg Config, proc *price.Process, b bus.Bus, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:    cfg,
		proc:   proc,
		bus:    b,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Start begins the generation loop.
func (g *Generator) Start(ctx context.Context) error {
	g.ctx, g.cancel = context.WithCancel(ctx)

	// Initial connectivity probe. Failure is not fatal: the loop keeps
	// evolving prices and reconnects with backoff.
	if err := g.bus.Ping(g.ctx); err != nil {
		g.logger.Warn("bus unreachable at startup, will retry", "error", err)
		g.disconnect()
	} else {
		g.connected = true
	}
	g.setConnectedStat(g.connected)

	g.wg.Add(1)
	go g.run()

	g.logger.Info("generator started",
		"symbols", len(g.proc.Symbols()),
		"trade_probability", g.cfg.TradeProbability,
		"min_cycle_delay", g.cfg.MinCycleDelay,
		"max_cycle_delay", g.cfg.MaxCycleDelay,
	)
	return nil
}

// Stop shuts the generator down, letting the current cycle finish.
func (g *Generator) Stop(ctx context.Context) error {
	if g.cancel != nil {
		g.cancel()
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.logger.Info("generator stopped")
		return nil
	case <-ctx.Done():
		g.logger.Warn("generator stop timed out")
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// run is the main generation loop.
func (g *Generator) run() {
	defer g.wg.Done()

	for {
		select {
		case <-g.ctx.Done():
			return
		default:
		}

		g.cycle()

		// Jittered sleep between cycles; cancellation is observed
		// within one sleep interval.
		select {
		case <-g.ctx.Done():
			return
		case <-time.After(g.jitter()):
		}
	}
}

// cycle processes every symbol once. Price evolution always runs;
// publishing is skipped while the bus is down.
func (g *Generator) cycle() {
	g.maybeReconnect()

	for _, sym := range g.proc.Symbols() {
		now := time.Now().UTC()

		quote := g.proc.Quote(sym, now)
		g.publish(quote)

		if g.rng.Float64() < g.cfg.TradeProbability {
			trade := g.proc.Trade(sym, now)
			g.publish(trade)
			// The trade moves the market.
			g.proc.SetRef(sym, trade.Price)
		}

		g.proc.Update(sym)
	}

	g.mu.Lock()
	g.stats.Cycles++
	g.mu.Unlock()
}

// publish serializes and publishes one event. Per-event failures are
// logged and skipped; a transport failure suspends publishing.
func (g *Generator) publish(ev model.Event) {
	if !g.connected {
		return
	}

	data, err := model.Encode(ev)
	if err != nil {
		g.logger.Warn("failed to encode event", "symbol", ev.EventSymbol(), "kind", ev.Kind(), "error", err)
		g.countError()
		return
	}

	if err := g.bus.Publish(g.ctx, bus.Topic(ev.EventSymbol()), data); err != nil {
		g.logger.Warn("publish failed, suspending until reconnect",
			"symbol", ev.EventSymbol(),
			"kind", ev.Kind(),
			"error", err,
		)
		g.countError()
		g.disconnect()
		return
	}

	g.mu.Lock()
	switch ev.Kind() {
	case model.KindQuote:
		g.stats.QuotesPublished++
	case model.KindTrade:
		g.stats.TradesPublished++
	}
	g.mu.Unlock()
}

// maybeReconnect probes the bus when a backoff deadline has passed.
func (g *Generator) maybeReconnect() {
	if g.connected || time.Now().Before(g.nextRetry) {
		return
	}

	if err := g.bus.Ping(g.ctx); err != nil {
		g.logger.Debug("reconnect attempt failed", "error", err, "next_wait", g.retryWait)
		g.nextRetry = time.Now().Add(g.retryWait)
		g.retryWait *= 2
		if g.retryWait > g.cfg.ReconnectMaxWait {
			g.retryWait = g.cfg.ReconnectMaxWait
		}
		return
	}

	g.connected = true
	g.setConnectedStat(true)
	g.mu.Lock()
	g.stats.Reconnects++
	g.mu.Unlock()
	g.logger.Info("bus reconnected, resuming publishing")
}

// disconnect marks the bus down and arms the first backoff deadline.
func (g *Generator) disconnect() {
	g.connected = false
	g.setConnectedStat(false)
	g.retryWait = g.cfg.ReconnectBaseWait
	g.nextRetry = time.Now().Add(g.retryWait)
}

func (g *Generator) countError() {
	g.mu.Lock()
	g.stats.PublishErrors++
	g.mu.Unlock()
}

func (g *Generator) setConnectedStat(v bool) {
	g.mu.Lock()
	g.stats.Connected = v
	g.mu.Unlock()
}

// jitter draws the inter-cycle sleep uniformly from the configured range.
func (g *Generator) jitter() time.Duration {
	if g.cfg.MaxCycleDelay <= g.cfg.MinCycleDelay {
		return g.cfg.MinCycleDelay
	}
	span := g.cfg.MaxCycleDelay - g.cfg.MinCycleDelay
	return g.cfg.MinCycleDelay + time.Duration(g.rng.Int63n(int64(span)))
}
