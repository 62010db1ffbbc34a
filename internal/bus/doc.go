// Package bus provides the publish/subscribe transport for market
// events.
//
// The bus is at-most-once and per-topic ordered: a publish is
// fire-and-forget, topics with no subscribers are discarded, and a
// subscriber that falls behind loses messages rather than blocking the
// publisher. Each symbol maps to one topic.
//
// Two implementations are provided: Redis (pub/sub, one channel per
// topic) for deployment, and Memory for tests and single-process runs.
package bus
