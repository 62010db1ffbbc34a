package store

import (
	"context"
	"sync"
	"time"

	"github.com/rickgao/marketfeed/internal/model"
)

// defaultMaxRows bounds the per-symbol, per-kind retention of the
// in-memory store.
const defaultMaxRows = 10000

// Memory is an in-process Store for tests and demo runs. Appends are
// kept per symbol in arrival order, bounded by a ring of maxRows.
type Memory struct {
	mu      sync.RWMutex
	quotes  map[string][]model.Quote
	trades  map[string][]model.Trade
	maxRows int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-process store. maxRows bounds per-symbol
// retention; non-positive values use the default.
func NewMemory(maxRows int) *Memory {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Memory{
		quotes:  make(map[string][]model.Quote),
		trades:  make(map[string][]model.Trade),
		maxRows: maxRows,
	}
}

// AppendQuote appends one quote row. Duplicates are independent rows.
func (m *Memory) AppendQuote(_ context.Context, q model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := append(m.quotes[q.Symbol], q)
	if len(rows) > m.maxRows {
		rows = rows[len(rows)-m.maxRows:]
	}
	m.quotes[q.Symbol] = rows
	return nil
}

// AppendTrade appends one trade row. Duplicates are independent rows.
func (m *Memory) AppendTrade(_ context.Context, t model.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := append(m.trades[t.Symbol], t)
	if len(rows) > m.maxRows {
		rows = rows[len(rows)-m.maxRows:]
	}
	m.trades[t.Symbol] = rows
	return nil
}

// RecentQuotes returns up to limit quotes for a symbol, newest first.
func (m *Memory) RecentQuotes(_ context.Context, symbol string, limit int) ([]model.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.quotes[symbol]
	n := len(rows)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]model.Quote, 0, n)
	for i := len(rows) - 1; i >= len(rows)-n; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

// RecentTrades returns up to limit trades for a symbol, newest first.
func (m *Memory) RecentTrades(_ context.Context, symbol string, limit int) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.trades[symbol]
	n := len(rows)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]model.Trade, 0, n)
	for i := len(rows) - 1; i >= len(rows)-n; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

// Symbols returns the latest trade print per symbol.
func (m *Memory) Symbols(context.Context) ([]SymbolPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SymbolPrice, 0, len(m.trades))
	for sym, rows := range m.trades {
		if len(rows) == 0 {
			continue
		}
		last := rows[len(rows)-1]
		out = append(out, SymbolPrice{Symbol: sym, Price: last.Price, Time: last.Timestamp})
	}
	return out, nil
}

// Stats aggregates the last hour of trades for a symbol.
func (m *Memory) Stats(_ context.Context, symbol string) (SymbolStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := SymbolStats{Symbol: symbol}
	cutoff := time.Now().Add(-time.Hour)

	var sum float64
	for _, t := range m.trades[symbol] {
		if t.Timestamp.Before(cutoff) {
			continue
		}
		st.TotalTrades++
		st.TotalVolume += int64(t.Volume)
		sum += t.Price
		if st.MinPrice == 0 || t.Price < st.MinPrice {
			st.MinPrice = t.Price
		}
		if t.Price > st.MaxPrice {
			st.MaxPrice = t.Price
		}
		if t.Timestamp.After(st.LastTradeTime) {
			st.LastTradeTime = t.Timestamp
		}
	}
	if st.TotalTrades > 0 {
		st.AvgPrice = sum / float64(st.TotalTrades)
	}
	return st, nil
}

// Ping always succeeds for the in-memory store.
func (m *Memory) Ping(context.Context) error { return nil }

// QuoteCount reports the number of stored quote rows for a symbol.
func (m *Memory) QuoteCount(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quotes[symbol])
}

// TradeCount reports the number of stored trade rows for a symbol.
func (m *Memory) TradeCount(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trades[symbol])
}
