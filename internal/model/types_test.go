package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestQuote_Validate(t *testing.T) {
	ts := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		quote   Quote
		wantErr bool
	}{
		{
			name:  "valid",
			quote: Quote{Symbol: "AAPL", BidPrice: 174.95, AskPrice: 175.05, BidSize: 200, AskSize: 300, Timestamp: ts},
		},
		{
			name:    "bid above ask",
			quote:   Quote{Symbol: "AAPL", BidPrice: 175.10, AskPrice: 175.05, BidSize: 200, AskSize: 300, Timestamp: ts},
			wantErr: true,
		},
		{
			name:    "crossed equal",
			quote:   Quote{Symbol: "AAPL", BidPrice: 175.00, AskPrice: 175.00, BidSize: 200, AskSize: 300, Timestamp: ts},
			wantErr: true,
		},
		{
			name:    "zero bid price",
			quote:   Quote{Symbol: "AAPL", BidPrice: 0, AskPrice: 175.05, BidSize: 200, AskSize: 300, Timestamp: ts},
			wantErr: true,
		},
		{
			name:    "zero ask size",
			quote:   Quote{Symbol: "AAPL", BidPrice: 174.95, AskPrice: 175.05, BidSize: 200, AskSize: 0, Timestamp: ts},
			wantErr: true,
		},
		{
			name:    "empty symbol",
			quote:   Quote{BidPrice: 174.95, AskPrice: 175.05, BidSize: 200, AskSize: 300, Timestamp: ts},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quote.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrade_Validate(t *testing.T) {
	ts := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		trade   Trade
		wantErr bool
	}{
		{
			name:  "valid buy",
			trade: Trade{Symbol: "TSLA", Price: 240.50, Volume: 300, Side: SideBuy, Timestamp: ts},
		},
		{
			name:  "valid sell",
			trade: Trade{Symbol: "TSLA", Price: 240.50, Volume: 300, Side: SideSell, Timestamp: ts},
		},
		{
			name:    "zero price",
			trade:   Trade{Symbol: "TSLA", Price: 0, Volume: 300, Side: SideBuy, Timestamp: ts},
			wantErr: true,
		},
		{
			name:    "zero volume",
			trade:   Trade{Symbol: "TSLA", Price: 240.50, Volume: 0, Side: SideBuy, Timestamp: ts},
			wantErr: true,
		},
		{
			name:    "bad side",
			trade:   Trade{Symbol: "TSLA", Price: 240.50, Volume: 300, Side: "HOLD", Timestamp: ts},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trade.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncode_Decode_Quote(t *testing.T) {
	ts := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	q := Quote{Symbol: "AAPL", BidPrice: 174.95, AskPrice: 175.05, BidSize: 200, AskSize: 300, Timestamp: ts}

	data, err := Encode(q)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if !strings.Contains(string(data), `"type":"quote"`) {
		t.Errorf("encoded quote missing type tag: %s", data)
	}
	if !strings.Contains(string(data), `"bid_price":174.95`) {
		t.Errorf("encoded quote missing bid_price: %s", data)
	}

	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	got, ok := ev.(Quote)
	if !ok {
		t.Fatalf("Decode() = %T, want Quote", ev)
	}
	if got != q {
		t.Errorf("round trip = %+v, want %+v", got, q)
	}
	if got.Kind() != KindQuote {
		t.Errorf("Kind() = %q, want %q", got.Kind(), KindQuote)
	}
}

func TestEncode_Decode_Trade(t *testing.T) {
	ts := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	tr := Trade{Symbol: "TSLA", Price: 240.50, Volume: 300, Side: SideSell, Timestamp: ts}

	data, err := Encode(tr)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if !strings.Contains(string(data), `"type":"trade"`) {
		t.Errorf("encoded trade missing type tag: %s", data)
	}
	if !strings.Contains(string(data), `"side":"SELL"`) {
		t.Errorf("encoded trade missing side: %s", data)
	}

	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	got, ok := ev.(Trade)
	if !ok {
		t.Fatalf("Decode() = %T, want Trade", ev)
	}
	if got != tr {
		t.Errorf("round trip = %+v, want %+v", got, tr)
	}
	if got.EventSymbol() != "TSLA" {
		t.Errorf("EventSymbol() = %q, want TSLA", got.EventSymbol())
	}
	if !got.EventTime().Equal(ts) {
		t.Errorf("EventTime() = %v, want %v", got.EventTime(), ts)
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"type":"heartbeat"}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Decode() error = %v, want ErrUnknownKind", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Error("Decode() error = nil, want parse error")
	}
}
