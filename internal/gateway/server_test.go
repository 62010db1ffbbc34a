package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/marketfeed/internal/bus"
	"github.com/rickgao/marketfeed/internal/model"
	"github.com/rickgao/marketfeed/internal/relay"
	"github.com/rickgao/marketfeed/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T) (*Server, *bus.Memory, *store.Memory, *httptest.Server) {
	t.Helper()

	b := bus.NewMemory()
	st := store.NewMemory(0)
	s := NewServer(Config{
		WriteTimeout: time.Second,
		Relay: relay.Config{
			SubscribeAttempts: 2,
			SubscribeBaseWait: time.Millisecond,
			WriteTimeout:      time.Second,
		},
	}, b, st, testLogger())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		b.Close()
	})
	return s, b, st, ts
}

func seedTrades(t *testing.T, st *store.Memory, symbol string, n int) {
	t.Helper()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		tr := model.Trade{
			Symbol:    symbol,
			Price:     175.00 + float64(i),
			Volume:    100,
			Side:      model.SideBuy,
			Timestamp: now.Add(time.Duration(i) * time.Second),
		}
		if err := st.AppendTrade(context.Background(), tr); err != nil {
			t.Fatalf("AppendTrade() error = %v", err)
		}
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestServer_Symbols(t *testing.T) {
	_, _, st, ts := testServer(t)
	seedTrades(t, st, "AAPL", 3)
	seedTrades(t, st, "TSLA", 1)

	var symbols []store.SymbolPrice
	if code := getJSON(t, ts.URL+"/api/symbols", &symbols); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(symbols) != 2 {
		t.Fatalf("symbols len = %d, want 2", len(symbols))
	}
}

func TestServer_Trades_LimitClamped(t *testing.T) {
	_, _, st, ts := testServer(t)
	seedTrades(t, st, "AAPL", 30)

	var body struct {
		Symbol string        `json:"symbol"`
		Trades []model.Trade `json:"trades"`
		Count  int           `json:"count"`
	}
	if code := getJSON(t, ts.URL+"/api/trades/AAPL?limit=5", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Count != 5 || len(body.Trades) != 5 {
		t.Fatalf("count = %d, want 5", body.Count)
	}
	// Newest first.
	if body.Trades[0].Price != 204.00 {
		t.Errorf("trades[0].Price = %v, want 204.00", body.Trades[0].Price)
	}

	// Default applies when limit is absent, and garbage is clamped.
	if code := getJSON(t, ts.URL+"/api/trades/AAPL?limit=-3", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1 (clamped)", body.Count)
	}
}

func TestServer_Quotes_UnknownSymbolIsEmpty(t *testing.T) {
	_, _, _, ts := testServer(t)

	var body struct {
		Symbol string        `json:"symbol"`
		Quotes []model.Quote `json:"quotes"`
		Count  int           `json:"count"`
	}
	if code := getJSON(t, ts.URL+"/api/quotes/NOPE", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Count != 0 {
		t.Errorf("count = %d, want 0", body.Count)
	}
}

func TestServer_RESTSymbolsAreCaseInsensitive(t *testing.T) {
	_, _, st, ts := testServer(t)
	seedTrades(t, st, "AAPL", 3)

	var body struct {
		Symbol string        `json:"symbol"`
		Trades []model.Trade `json:"trades"`
		Count  int           `json:"count"`
	}
	if code := getJSON(t, ts.URL+"/api/trades/aapl", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want normalized AAPL", body.Symbol)
	}
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}

	var stats store.SymbolStats
	if code := getJSON(t, ts.URL+"/api/stats/Aapl", &stats); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if stats.TotalTrades != 3 {
		t.Errorf("TotalTrades = %d, want 3", stats.TotalTrades)
	}
}

func TestServer_Stats(t *testing.T) {
	_, _, st, ts := testServer(t)
	seedTrades(t, st, "AAPL", 2)

	var body store.SymbolStats
	if code := getJSON(t, ts.URL+"/api/stats/AAPL", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.TotalTrades != 2 || body.TotalVolume != 200 {
		t.Errorf("stats = %+v, want 2 trades / 200 volume", body)
	}
	if body.MinPrice != 175.00 || body.MaxPrice != 176.00 {
		t.Errorf("price range = [%v, %v], want [175, 176]", body.MinPrice, body.MaxPrice)
	}
}

func TestServer_Health(t *testing.T) {
	_, b, _, ts := testServer(t)

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}

	// A dead bus degrades but does not fail the endpoint.
	b.Close()
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Status != "degraded" || body.Components["bus"] != "down" {
		t.Errorf("health = %+v, want degraded with bus down", body)
	}
}

func TestServer_WebSocketStream(t *testing.T) {
	s, b, st, ts := testServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/AAPL"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// The session subscribes asynchronously after the upgrade.
	deadline := time.Now().Add(time.Second)
	for s.Stats().ActiveSessions == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	q := model.Quote{
		Symbol:    "AAPL",
		BidPrice:  174.95,
		AskPrice:  175.05,
		BidSize:   200,
		AskSize:   300,
		Timestamp: time.Now().UTC(),
	}
	payload, err := model.Encode(q)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := b.Publish(context.Background(), bus.Topic("AAPL"), payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	ev, err := model.Decode(msg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	got, ok := ev.(model.Quote)
	if !ok {
		t.Fatalf("event kind = %s, want quote", ev.Kind())
	}
	if got.Symbol != "AAPL" || got.BidPrice != 174.95 {
		t.Errorf("streamed quote = %+v", got)
	}

	// The streamed event also landed in the store.
	deadline = time.Now().Add(time.Second)
	for st.QuoteCount("AAPL") == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if st.QuoteCount("AAPL") != 1 {
		t.Errorf("QuoteCount() = %d, want 1", st.QuoteCount("AAPL"))
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for s.Stats().ActiveSessions != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := s.Stats().ActiveSessions; got != 0 {
		t.Errorf("ActiveSessions = %d, want 0 after disconnect", got)
	}
	if got := s.Stats().TotalSessions; got != 1 {
		t.Errorf("TotalSessions = %d, want 1", got)
	}
}
