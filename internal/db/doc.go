// Package db resolves PostgreSQL connection settings and opens the pool the
// catalog writes through.
package db
