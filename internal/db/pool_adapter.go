package db

import (
	"context"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolAdapter adapts *pgxpool.Pool to mosaic.DBConnection so the catalog can
// be tested without a server.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

var _ mosaic.DBConnection = (*PoolAdapter)(nil)

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) mosaic.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}
