package model

import (
	"fmt"
	"time"
)

// Event kinds carried on the wire.
const (
	KindQuote = "quote"
	KindTrade = "trade"
)

// Side identifies the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Event is the closed union of market event kinds (Quote | Trade).
// Events are immutable facts: created by the generator, relayed to
// subscribers, and appended to the durable store. They are never
// updated after creation.
type Event interface {
	// Kind returns the wire discriminator ("quote" or "trade").
	Kind() string

	// EventSymbol returns the symbol whose per-stream order the event
	// participates in.
	EventSymbol() string

	// EventTime returns the creation timestamp used for ordering
	// within a symbol's stream.
	EventTime() time.Time

	// Validate checks the event's internal invariants.
	Validate() error
}

// Quote is a bid/ask price and size pair at a point in time.
type Quote struct {
	Symbol    string    `json:"symbol"`
	BidPrice  float64   `json:"bid_price"`
	AskPrice  float64   `json:"ask_price"`
	BidSize   int       `json:"bid_size"`
	AskSize   int       `json:"ask_size"`
	Timestamp time.Time `json:"timestamp"`
}

// Kind returns "quote".
func (q Quote) Kind() string { return KindQuote }

// EventSymbol returns the quoted symbol.
func (q Quote) EventSymbol() string { return q.Symbol }

// EventTime returns the quote timestamp.
func (q Quote) EventTime() time.Time { return q.Timestamp }

// Validate checks bid < ask, positive prices, and positive sizes.
func (q Quote) Validate() error {
	if q.Symbol == "" {
		return fmt.Errorf("quote: empty symbol")
	}
	if q.BidPrice <= 0 || q.AskPrice <= 0 {
		return fmt.Errorf("quote %s: non-positive price (bid=%v ask=%v)", q.Symbol, q.BidPrice, q.AskPrice)
	}
	if q.BidPrice >= q.AskPrice {
		return fmt.Errorf("quote %s: bid %v >= ask %v", q.Symbol, q.BidPrice, q.AskPrice)
	}
	if q.BidSize <= 0 || q.AskSize <= 0 {
		return fmt.Errorf("quote %s: non-positive size (bid=%d ask=%d)", q.Symbol, q.BidSize, q.AskSize)
	}
	return nil
}

// Trade is an executed transaction print with price, volume, and side.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int       `json:"volume"`
	Side      Side      `json:"side"`
	Timestamp time.Time `json:"timestamp"`
}

// Kind returns "trade".
func (t Trade) Kind() string { return KindTrade }

// EventSymbol returns the traded symbol.
func (t Trade) EventSymbol() string { return t.Symbol }

// EventTime returns the trade timestamp.
func (t Trade) EventTime() time.Time { return t.Timestamp }

// Validate checks positive price, positive volume, and a known side.
// The configured volume cap is enforced at generation time, not here:
// the model has no access to configuration.
func (t Trade) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("trade: empty symbol")
	}
	if t.Price <= 0 {
		return fmt.Errorf("trade %s: non-positive price %v", t.Symbol, t.Price)
	}
	if t.Volume <= 0 {
		return fmt.Errorf("trade %s: non-positive volume %d", t.Symbol, t.Volume)
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("trade %s: unknown side %q", t.Symbol, t.Side)
	}
	return nil
}
