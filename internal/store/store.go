package store

import (
	"context"
	"time"

	"github.com/rickgao/marketfeed/internal/model"
)

// SymbolPrice is a symbol's most recent trade print.
type SymbolPrice struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

// SymbolStats aggregates the last hour of trading for one symbol.
type SymbolStats struct {
	Symbol        string    `json:"symbol"`
	TotalTrades   int64     `json:"total_trades"`
	AvgPrice      float64   `json:"avg_price"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	TotalVolume   int64     `json:"total_volume"`
	LastTradeTime time.Time `json:"last_trade_time"`
}

// Store is the append-only durable event store plus the read-only
// query surface the gateway exposes.
type Store interface {
	// AppendQuote durably appends one quote row.
	AppendQuote(ctx context.Context, q model.Quote) error

	// AppendTrade durably appends one trade row.
	AppendTrade(ctx context.Context, t model.Trade) error

	// RecentQuotes returns up to limit quotes for a symbol, newest first.
	RecentQuotes(ctx context.Context, symbol string, limit int) ([]model.Quote, error)

	// RecentTrades returns up to limit trades for a symbol, newest first.
	RecentTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error)

	// Symbols returns the latest trade print per symbol.
	Symbols(ctx context.Context) ([]SymbolPrice, error)

	// Stats aggregates the last hour of trades for a symbol.
	Stats(ctx context.Context, symbol string) (SymbolStats, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
