// Package price implements the per-symbol stochastic price process.
//
// Each symbol carries a reference price evolved by a bounded random
// walk with occasional discontinuous jumps. Quotes and trades are
// derived from the reference price on demand. A Process is owned by a
// single generator goroutine; it is not safe for concurrent use.
package price
