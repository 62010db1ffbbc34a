// Package database provides connection pool management for PostgreSQL.
//
// The gateway owns the single pool; the event tables (trades, quotes)
// live in one database.
package database
