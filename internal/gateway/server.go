package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/marketfeed/internal/bus"
	"github.com/rickgao/marketfeed/internal/relay"
	"github.com/rickgao/marketfeed/internal/store"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// Config holds gateway server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// Relay tunes the per-connection sessions.
	Relay relay.Config
}

// Stats is a snapshot of gateway counters.
type Stats struct {
	ActiveSessions int64
	TotalSessions  int64
}

// Server serves the WebSocket and REST endpoints.
type Server struct {
	cfg    Config
	bus    bus.Bus
	store  store.Store
	logger *slog.Logger

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// NewServer creates a gateway over the given bus and store.
func NewServer(cfg Config, b bus.Bus, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Server{
		cfg:    cfg,
		bus:    b,
		store:  st,
		logger: logger,
	}
}

// Handler returns the gateway's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{symbol}", s.handleWS)
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/quotes/{symbol}", s.handleQuotes)
	mux.HandleFunc("GET /api/trades/{symbol}", s.handleTrades)
	mux.HandleFunc("GET /api/stats/{symbol}", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start begins serving. It returns once the listener is running.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway listener failed", "error", err)
		}
	}()

	s.logger.Info("gateway started", "addr", s.cfg.Addr)
	return nil
}

// Stop shuts the listener down and waits for active sessions to drain.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown gateway: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gateway stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("gateway stop timed out")
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.Symbols(r.Context())
	if err != nil {
		s.serverError(w, "list symbols", err)
		return
	}
	if symbols == nil {
		symbols = []store.SymbolPrice{}
	}
	s.writeJSON(w, http.StatusOK, symbols)
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	quotes, err := s.store.RecentQuotes(r.Context(), symbol, queryLimit(r))
	if err != nil {
		s.serverError(w, "recent quotes", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"quotes": quotes,
		"count":  len(quotes),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	trades, err := s.store.RecentTrades(r.Context(), symbol, queryLimit(r))
	if err != nil {
		s.serverError(w, "recent trades", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"trades": trades,
		"count":  len(trades),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	st, err := s.store.Stats(r.Context(), symbol)
	if err != nil {
		s.serverError(w, "symbol stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"database": "up",
		"bus":      "up",
	}
	down := 0
	if err := s.store.Ping(r.Context()); err != nil {
		components["database"] = "down"
		down++
	}
	if err := s.bus.Ping(r.Context()); err != nil {
		components["bus"] = "down"
		down++
	}

	status := "healthy"
	code := http.StatusOK
	switch down {
	case 1:
		status = "degraded"
	case 2:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]any{
		"status":     status,
		"components": components,
		"time":       time.Now().UTC(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// pathSymbol reads the symbol path segment. Stored symbols are upper
// case, so REST lookups accept any casing. Stream topics are exact.
func pathSymbol(r *http.Request) string {
	return strings.ToUpper(r.PathValue("symbol"))
}

// queryLimit parses ?limit=, clamped to [1, maxQueryLimit].
func queryLimit(r *http.Request) int {
	limit := defaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	return limit
}
