// Package relay binds one downstream consumer to one symbol's event
// stream. A session subscribes to the symbol's bus topic, forwards
// every payload to its transport, and persists the decoded event to
// the durable store. Forwarding and persistence are independent: a
// failure on one path never blocks the other.
//
// Sessions move Subscribing -> Streaming -> Draining -> Closed and
// never move backwards. A session that cannot establish its
// subscription within the configured attempts fails without entering
// Streaming.
package relay
