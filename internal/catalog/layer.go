// Package catalog writes granule features into a PostGIS mosaic index table.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/encoding/wkb"
)

const lookupGeometrySQL = `
	SELECT f_geometry_column, srid, type
	FROM geometry_columns
	WHERE f_table_schema = $1 AND f_table_name = $2
	ORDER BY f_geometry_column
	LIMIT 1`

const lookupColumnsSQL = `
	SELECT count(*)
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2 AND column_name = ANY($3)`

// Layer is a PostGIS table whose rows are mosaic granules.
type Layer struct {
	conn            mosaic.DBConnection
	schema          string
	table           string
	geomColumn      string
	srid            int
	geomType        string
	ingestionColumn string
	insertSQL       string
	now             func() time.Time
}

var _ mosaic.Catalog = (*Layer)(nil)

// Option configures a Layer.
type Option func(*Layer)

// WithIngestionColumn stores the insert time of each feature in column.
func WithIngestionColumn(column string) Option {
	return func(l *Layer) { l.ingestionColumn = column }
}

// WithClock replaces the time source used for the ingestion column.
func WithClock(now func() time.Time) Option {
	return func(l *Layer) { l.now = now }
}

// Open resolves name ("schema.table" or "table") against geometry_columns and
// checks that the location column, and the ingestion column if one is
// configured, exist. A table that is missing or has no geometry column
// yields mosaic.ErrLayerNotFound.
func Open(ctx context.Context, conn mosaic.DBConnection, name string, opts ...Option) (*Layer, error) {
	schema, table, err := mosaic.SplitLayerName(name)
	if err != nil {
		return nil, err
	}

	l := &Layer{conn: conn, schema: schema, table: table, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	err = conn.QueryRow(ctx, lookupGeometrySQL, schema, table).Scan(&l.geomColumn, &l.srid, &l.geomType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s has no PostGIS geometry column (is the table created and registered in geometry_columns?)",
			mosaic.ErrLayerNotFound, l.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("look up layer %s: %w", l.Name(), err)
	}

	if c := l.ingestionColumn; c != "" && (c == mosaic.LocationField || c == l.geomColumn) {
		return nil, fmt.Errorf("%w: ingestion column %q of %s is already written as the granule location or footprint",
			mosaic.ErrInvalidConfig, c, l.Name())
	}

	required := []string{mosaic.LocationField}
	if l.ingestionColumn != "" {
		required = append(required, l.ingestionColumn)
	}
	var found int
	if err := conn.QueryRow(ctx, lookupColumnsSQL, schema, table, required).Scan(&found); err != nil {
		return nil, fmt.Errorf("look up columns of %s: %w", l.Name(), err)
	}
	if found != len(required) {
		return nil, fmt.Errorf("%w: %s must have columns %s", mosaic.ErrLayerNotFound, l.Name(), strings.Join(required, ", "))
	}

	l.insertSQL = l.buildInsert()
	return l, nil
}

func (l *Layer) Name() string {
	return l.schema + "." + l.table
}

func (l *Layer) GeometryColumn() string { return l.geomColumn }

func (l *Layer) SRID() int { return l.srid }

func (l *Layer) GeometryType() string { return l.geomType }

// CreateFeature inserts one granule row.
func (l *Layer) CreateFeature(ctx context.Context, rec mosaic.GranuleRecord) error {
	geom, err := wkb.Marshal(rec.Footprint.Polygon())
	if err != nil {
		return fmt.Errorf("encode footprint of %s: %w", rec.Location, err)
	}

	args := []any{rec.Location, geom, l.srid}
	if l.ingestionColumn != "" {
		args = append(args, l.now().UTC())
	}

	tag, err := l.conn.Exec(ctx, l.insertSQL, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("insert into %s affected %d rows", l.Name(), tag.RowsAffected())
	}
	return nil
}

func (l *Layer) buildInsert() string {
	geomExpr := "ST_SetSRID(ST_GeomFromWKB($2), $3)"
	if strings.EqualFold(l.geomType, "MULTIPOLYGON") {
		geomExpr = "ST_Multi(" + geomExpr + ")"
	}

	cols := []string{
		pgx.Identifier{mosaic.LocationField}.Sanitize(),
		pgx.Identifier{l.geomColumn}.Sanitize(),
	}
	vals := []string{"$1", geomExpr}
	if l.ingestionColumn != "" {
		cols = append(cols, pgx.Identifier{l.ingestionColumn}.Sanitize())
		vals = append(vals, "$4")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{l.schema, l.table}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(vals, ", "))
}
