// Package store provides the durable, append-only event store.
//
// Appends are independent facts: the same logical event inserted twice
// yields two rows, a known and bounded side effect of fan-out
// persistence, not corruption. There are no updates or deletes.
//
// The Postgres implementation mirrors the generator's wire precision
// (dollar prices, whole-share sizes). Memory backs tests and demo runs
// with a bounded per-symbol ring.
package store
