// Package model defines the market event types shared across the pipeline.
//
// Conventions:
//   - Prices: float64 dollars, rounded to 2 decimal places before emission
//   - Sizes/volumes: whole shares, always positive
//   - Timestamps: time.Time, serialized as ISO 8601 (RFC 3339) on the wire
//
// The wire format carries a "type" discriminator ("quote" or "trade");
// Decode inspects the envelope first and then parses the full payload.
package model
