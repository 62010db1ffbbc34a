package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by Decode for payloads whose "type"
// discriminator is not a known event kind.
var ErrUnknownKind = errors.New("unknown event kind")

// quoteWire and tradeWire add the "type" discriminator to the wire form.
type quoteWire struct {
	Type string `json:"type"`
	Quote
}

type tradeWire struct {
	Type string `json:"type"`
	Trade
}

// messageEnvelope is used to extract the discriminator without a full parse.
type messageEnvelope struct {
	Type string `json:"type"`
}

// Encode serializes an event into its wire form.
func Encode(ev Event) ([]byte, error) {
	switch v := ev.(type) {
	case Quote:
		return json.Marshal(quoteWire{Type: KindQuote, Quote: v})
	case Trade:
		return json.Marshal(tradeWire{Type: KindTrade, Trade: v})
	default:
		return nil, fmt.Errorf("encode event: unsupported type %T", ev)
	}
}

// Decode parses a wire payload into a Quote or Trade.
func Decode(data []byte) (Event, error) {
	var env messageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case KindQuote:
		var w quoteWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode quote: %w", err)
		}
		return w.Quote, nil
	case KindTrade:
		var w tradeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode trade: %w", err)
		}
		return w.Trade, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}
