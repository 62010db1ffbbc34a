package price

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rickgao/marketfeed/internal/model"
)

// Distribution parameters for the walk and the derived events.
const (
	// DriftBias is the small upward bias added to every walk increment.
	DriftBias = 0.0001

	// JumpProbability is the per-update chance of a news-shock jump,
	// applied on top of the routine walk increment.
	JumpProbability = 0.001

	// JumpRange bounds the uniform jump magnitude (±2%).
	JumpRange = 0.02

	// Spread fraction band for derived quotes (0.01%–0.05% of mid).
	minSpreadFrac = 0.0001
	maxSpreadFrac = 0.0005

	// tradeBandFrac bounds the uniform perturbation of a trade print
	// around the reference price (±0.1%).
	tradeBandFrac = 0.001

	// paretoAlpha shapes the heavy-tailed trade volume distribution.
	paretoAlpha = 1.5

	// lotSize is the round lot all sizes are multiples of.
	lotSize = 100

	// maxQuoteLots bounds quote sizes (1–50 lots).
	maxQuoteLots = 50

	// PriceFloor is the smallest price any perturbation may produce.
	PriceFloor = 0.01
)

// State is the mutable per-symbol price state. It is owned exclusively
// by the generator; volatility is constant for the process lifetime.
type State struct {
	Ref float64 // current reference price
	Vol float64 // walk standard deviation
}

// Process evolves reference prices and derives quotes and trades.
// All randomness flows through a single seeded source, so a fixed seed
// yields a deterministic event sequence.
type Process struct {
	rng       *rand.Rand
	states    map[string]*State
	order     []string // symbols in registration order
	maxVolume int
}

// NewProcess creates an empty process. maxVolume caps trade volume;
// non-positive values fall back to DefaultMaxVolume.
func NewProcess(seed int64, maxVolume int) *Process {
	if maxVolume <= 0 {
		maxVolume = DefaultMaxVolume
	}
	return &Process{
		rng:       rand.New(rand.NewSource(seed)),
		states:    make(map[string]*State),
		maxVolume: maxVolume,
	}
}

// DefaultMaxVolume caps trade volume at 10,000 shares.
const DefaultMaxVolume = 10000

// AddSymbol registers a symbol with its starting price and volatility.
// Invalid parameters are configuration errors, fatal at startup.
func (p *Process) AddSymbol(symbol string, startPrice, volatility float64) error {
	if symbol == "" {
		return fmt.Errorf("add symbol: empty symbol")
	}
	if startPrice <= 0 {
		return fmt.Errorf("add symbol %s: non-positive start price %v", symbol, startPrice)
	}
	if volatility <= 0 {
		return fmt.Errorf("add symbol %s: non-positive volatility %v", symbol, volatility)
	}
	if _, ok := p.states[symbol]; ok {
		return fmt.Errorf("add symbol %s: already registered", symbol)
	}
	p.states[symbol] = &State{Ref: startPrice, Vol: volatility}
	p.order = append(p.order, symbol)
	return nil
}

// Symbols returns the registered symbols in registration order.
func (p *Process) Symbols() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Ref returns the current reference price for a symbol (0 if unknown).
func (p *Process) Ref(symbol string) float64 {
	s, ok := p.states[symbol]
	if !ok {
		return 0
	}
	return s.Ref
}

// SetRef resets the reference price, used when a trade print moves the
// market. Non-positive prices are clamped to PriceFloor.
func (p *Process) SetRef(symbol string, px float64) {
	s, ok := p.states[symbol]
	if !ok {
		return
	}
	s.Ref = clampPositive(px)
}

// Update advances the reference price one walk step: a Gaussian
// increment with a small upward bias, plus a rare uniform jump
// modeling a news shock. Returns the new reference price.
func (p *Process) Update(symbol string) float64 {
	s, ok := p.states[symbol]
	if !ok {
		return 0
	}

	change := p.rng.NormFloat64()*s.Vol + DriftBias
	s.Ref = clampPositive(s.Ref * (1 + change))

	if p.rng.Float64() < JumpProbability {
		jump := p.uniform(-JumpRange, JumpRange)
		s.Ref = clampPositive(s.Ref * (1 + jump))
	}

	return s.Ref
}

// Quote derives a two-sided quote around the reference price. The
// spread fraction is drawn uniformly from a narrow band and both sides
// are rounded to cents; sizes are uniform round lots.
func (p *Process) Quote(symbol string, now time.Time) model.Quote {
	s := p.states[symbol]
	half := s.Ref * p.uniform(minSpreadFrac, maxSpreadFrac) / 2

	bid := round2(s.Ref - half)
	ask := round2(s.Ref + half)
	if ask <= bid {
		// Rounding can collapse a very tight spread; force one tick.
		ask = bid + PriceFloor
	}

	return model.Quote{
		Symbol:    symbol,
		BidPrice:  round2(clampPositive(bid)),
		AskPrice:  round2(ask),
		BidSize:   (1 + p.rng.Intn(maxQuoteLots)) * lotSize,
		AskSize:   (1 + p.rng.Intn(maxQuoteLots)) * lotSize,
		Timestamp: now,
	}
}

// Trade derives a trade print near the reference price. Volume follows
// a Pareto distribution in round lots, capped at the configured
// maximum; side is an unbiased coin flip.
func (p *Process) Trade(symbol string, now time.Time) model.Trade {
	s := p.states[symbol]

	px := round2(clampPositive(s.Ref * (1 + p.uniform(-tradeBandFrac, tradeBandFrac))))

	volume := int(p.pareto()) * lotSize
	if volume > p.maxVolume {
		volume = p.maxVolume
	}

	side := model.SideSell
	if p.rng.Float64() < 0.5 {
		side = model.SideBuy
	}

	return model.Trade{
		Symbol:    symbol,
		Price:     px,
		Volume:    volume,
		Side:      side,
		Timestamp: now,
	}
}

// MaxVolume returns the configured trade volume cap.
func (p *Process) MaxVolume() int { return p.maxVolume }

// uniform draws from [lo, hi).
func (p *Process) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}

// pareto draws from a Pareto distribution with x_min=1: most draws are
// near 1, a few are large.
func (p *Process) pareto() float64 {
	u := 1 - p.rng.Float64() // (0, 1]
	return 1 / math.Pow(u, 1/paretoAlpha)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clampPositive(x float64) float64 {
	if x < PriceFloor {
		return PriceFloor
	}
	return x
}
