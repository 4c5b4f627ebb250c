package mosaic

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the catalog needs.
// This interface decouples the catalog from pgx pool types so it can be
// exercised with fakes.
//
// Thread-Safety: follows the underlying connection. Pool implementations are
// safe for concurrent use; the catalog writer uses it from one goroutine only.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Row represents a single row returned by QueryRow.
type Row interface {
	Scan(dest ...any) error
}
