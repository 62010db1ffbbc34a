// Package generator implements the market event generator.
//
// One generator goroutine owns the price process and iterates all
// configured symbols each cycle: a quote is always published, a trade
// is published with a fixed probability (and resets the reference
// price to its print), and the walk advances. Cycles are separated by
// a jittered sleep to avoid synchronized bursts.
//
// Publishing is fire-and-forget. A bus outage suspends publishing and
// triggers bounded exponential backoff reconnects; price evolution
// continues locally so the walk is not reset across the outage.
package generator
