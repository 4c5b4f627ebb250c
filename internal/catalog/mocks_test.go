package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *int:
			*p = r.values[i].(int)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

// fakeConn answers the layer lookup queries and records inserts.
type fakeConn struct {
	geometry     fakeRow
	columnsFound int
	columnArgs   []any
	execs        []execCall
	execErr      error
	rowsAffected int64
}

func postgisLayer(column string, srid int, geomType string) *fakeConn {
	return &fakeConn{
		geometry:     fakeRow{values: []any{column, srid, geomType}},
		columnsFound: 1,
		rowsAffected: 1,
	}
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) mosaic.Row {
	switch {
	case strings.Contains(sql, "geometry_columns"):
		return c.geometry
	case strings.Contains(sql, "information_schema.columns"):
		c.columnArgs = args
		return fakeRow{values: []any{c.columnsFound}}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, execCall{sql: sql, args: args})
	if c.execErr != nil {
		return pgconn.CommandTag{}, c.execErr
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", c.rowsAffected)), nil
}
