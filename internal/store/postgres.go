package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/marketfeed/internal/model"
)

// DefaultWriteTimeout bounds a single append.
const DefaultWriteTimeout = 5 * time.Second

// schema creates the append-only event tables and their query indexes.
const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	time TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	volume BIGINT NOT NULL,
	side TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS quotes (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	time TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	bid_price DOUBLE PRECISION NOT NULL,
	ask_price DOUBLE PRECISION NOT NULL,
	bid_size BIGINT NOT NULL,
	ask_size BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol_time ON trades (symbol, time DESC);
CREATE INDEX IF NOT EXISTS idx_quotes_symbol_time ON quotes (symbol, time DESC);
`

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool         *pgxpool.Pool
	writeTimeout time.Duration
	logger       *slog.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an existing pool. writeTimeout bounds each append;
// zero uses DefaultWriteTimeout.
func NewPostgres(pool *pgxpool.Pool, writeTimeout time.Duration, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Postgres{
		pool:         pool,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// EnsureSchema creates the event tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AppendQuote appends one quote row, bounded by the write timeout.
func (s *Postgres) AppendQuote(ctx context.Context, q model.Quote) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO quotes (time, symbol, bid_price, ask_price, bid_size, ask_size)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, q.Timestamp, q.Symbol, q.BidPrice, q.AskPrice, q.BidSize, q.AskSize)
	if err != nil {
		return fmt.Errorf("append quote %s: %w", q.Symbol, err)
	}
	return nil
}

// AppendTrade appends one trade row, bounded by the write timeout.
func (s *Postgres) AppendTrade(ctx context.Context, t model.Trade) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (time, symbol, price, volume, side)
		VALUES ($1, $2, $3, $4, $5)
	`, t.Timestamp, t.Symbol, t.Price, t.Volume, string(t.Side))
	if err != nil {
		return fmt.Errorf("append trade %s: %w", t.Symbol, err)
	}
	return nil
}

// RecentQuotes returns up to limit quotes for a symbol, newest first.
func (s *Postgres) RecentQuotes(ctx context.Context, symbol string, limit int) ([]model.Quote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT time, symbol, bid_price, ask_price, bid_size, ask_size
		FROM quotes
		WHERE symbol = $1
		ORDER BY time DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent quotes %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []model.Quote
	for rows.Next() {
		var q model.Quote
		if err := rows.Scan(&q.Timestamp, &q.Symbol, &q.BidPrice, &q.AskPrice, &q.BidSize, &q.AskSize); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RecentTrades returns up to limit trades for a symbol, newest first.
func (s *Postgres) RecentTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT time, symbol, price, volume, side
		FROM trades
		WHERE symbol = $1
		ORDER BY time DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trades %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var side string
		if err := rows.Scan(&t.Timestamp, &t.Symbol, &t.Price, &t.Volume, &side); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = model.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Symbols returns the latest trade print per symbol.
func (s *Postgres) Symbols(ctx context.Context) ([]SymbolPrice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (symbol) symbol, price, time
		FROM trades
		ORDER BY symbol, time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolPrice
	for rows.Next() {
		var sp SymbolPrice
		if err := rows.Scan(&sp.Symbol, &sp.Price, &sp.Time); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Stats aggregates the last hour of trades for a symbol.
func (s *Postgres) Stats(ctx context.Context, symbol string) (SymbolStats, error) {
	var st SymbolStats
	st.Symbol = symbol

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(price), 0),
		       COALESCE(MIN(price), 0),
		       COALESCE(MAX(price), 0),
		       COALESCE(SUM(volume), 0),
		       COALESCE(MAX(time), 'epoch'::timestamptz)
		FROM trades
		WHERE symbol = $1
		  AND time > NOW() - INTERVAL '1 hour'
	`, symbol).Scan(&st.TotalTrades, &st.AvgPrice, &st.MinPrice, &st.MaxPrice, &st.TotalVolume, &st.LastTradeTime)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return SymbolStats{}, fmt.Errorf("stats %s: %w", symbol, err)
	}
	return st, nil
}

// Ping verifies the database connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
