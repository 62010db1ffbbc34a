// Package gateway exposes the distribution surface: live WebSocket
// streams per symbol and a small REST API over the durable store.
//
// Each WebSocket connection is backed by a relay session, so a
// consumer receives the symbol's events in publish order and the same
// events land in the store. REST reads never touch the bus.
package gateway
