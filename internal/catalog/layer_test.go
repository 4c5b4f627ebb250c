package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() mosaic.GranuleRecord {
	return mosaic.GranuleRecord{
		Location: "/data/a.tif",
		Footprint: mosaic.Footprint{
			{100, 200}, {100, 180}, {110, 180}, {110, 200}, {100, 200},
		},
	}
}

func TestOpen_ResolvesLayer(t *testing.T) {
	conn := postgisLayer("the_geom", 4326, "POLYGON")

	l, err := Open(context.Background(), conn, "granules")
	require.NoError(t, err)

	assert.Equal(t, "public.granules", l.Name())
	assert.Equal(t, "the_geom", l.GeometryColumn())
	assert.Equal(t, 4326, l.SRID())
	assert.Equal(t, "POLYGON", l.GeometryType())
	assert.Equal(t, []any{"public", "granules", []string{"location"}}, conn.columnArgs)
	assert.Equal(t,
		`INSERT INTO "public"."granules" ("location", "the_geom") VALUES ($1, ST_SetSRID(ST_GeomFromWKB($2), $3))`,
		l.insertSQL)
}

func TestOpen_MultiPolygonAndIngestionColumn(t *testing.T) {
	conn := postgisLayer("geom", 3857, "MULTIPOLYGON")
	conn.columnsFound = 2

	l, err := Open(context.Background(), conn, "rasters.landsat", WithIngestionColumn("ingestion"))
	require.NoError(t, err)

	assert.Equal(t, "rasters.landsat", l.Name())
	assert.Equal(t,
		`INSERT INTO "rasters"."landsat" ("location", "geom", "ingestion") VALUES ($1, ST_Multi(ST_SetSRID(ST_GeomFromWKB($2), $3)), $4)`,
		l.insertSQL)
}

func TestOpen_LayerNotFound(t *testing.T) {
	conn := &fakeConn{geometry: fakeRow{err: pgx.ErrNoRows}}

	_, err := Open(context.Background(), conn, "public.missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, mosaic.ErrLayerNotFound)
	assert.Contains(t, err.Error(), "public.missing")
	assert.Equal(t, mosaic.ExitLayerNotFound, mosaic.ExitCodeForError(err))
}

func TestOpen_MissingLocationColumn(t *testing.T) {
	conn := postgisLayer("the_geom", 4326, "POLYGON")
	conn.columnsFound = 0

	_, err := Open(context.Background(), conn, "granules")
	require.Error(t, err)
	assert.ErrorIs(t, err, mosaic.ErrLayerNotFound)
	assert.Contains(t, err.Error(), "location")
}

func TestOpen_MissingIngestionColumn(t *testing.T) {
	conn := postgisLayer("the_geom", 4326, "POLYGON")

	_, err := Open(context.Background(), conn, "granules", WithIngestionColumn("loaded_at"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location, loaded_at")
}

func TestOpen_IngestionColumnCollides(t *testing.T) {
	for _, column := range []string{"location", "the_geom"} {
		t.Run(column, func(t *testing.T) {
			conn := postgisLayer("the_geom", 4326, "POLYGON")
			conn.columnsFound = 2

			_, err := Open(context.Background(), conn, "granules", WithIngestionColumn(column))
			require.Error(t, err)
			assert.ErrorIs(t, err, mosaic.ErrInvalidConfig)
			assert.NotErrorIs(t, err, mosaic.ErrLayerNotFound)
			assert.Contains(t, err.Error(), column)
			assert.Nil(t, conn.columnArgs)
		})
	}
}

func TestOpen_QueryError(t *testing.T) {
	conn := &fakeConn{geometry: fakeRow{err: errors.New("relation \"geometry_columns\" does not exist")}}

	_, err := Open(context.Background(), conn, "granules")
	require.Error(t, err)
	assert.NotErrorIs(t, err, mosaic.ErrLayerNotFound)
	assert.Contains(t, err.Error(), "look up layer public.granules")
}

func TestOpen_InvalidName(t *testing.T) {
	for _, name := range []string{"", "a.b.c", ".table", "schema."} {
		_, err := Open(context.Background(), &fakeConn{}, name)
		assert.ErrorIs(t, err, mosaic.ErrInvalidConfig, name)
	}
}

func TestCreateFeature_InsertsWKB(t *testing.T) {
	conn := postgisLayer("the_geom", 4326, "POLYGON")
	l, err := Open(context.Background(), conn, "granules")
	require.NoError(t, err)

	rec := sampleRecord()
	require.NoError(t, l.CreateFeature(context.Background(), rec))

	require.Len(t, conn.execs, 1)
	args := conn.execs[0].args
	require.Len(t, args, 3)
	assert.Equal(t, "/data/a.tif", args[0])
	assert.Equal(t, 4326, args[2])

	geom, err := wkb.Unmarshal(args[1].([]byte))
	require.NoError(t, err)
	poly, ok := geom.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, rec.Footprint.Ring(), poly[0])
}

func TestCreateFeature_IngestionTime(t *testing.T) {
	conn := postgisLayer("the_geom", 4326, "POLYGON")
	conn.columnsFound = 2
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	l, err := Open(context.Background(), conn, "granules", WithIngestionColumn("ingestion"), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	require.NoError(t, l.CreateFeature(context.Background(), sampleRecord()))

	args := conn.execs[0].args
	require.Len(t, args, 4)
	assert.Equal(t, fixed.UTC(), args[3])
}

func TestCreateFeature_Errors(t *testing.T) {
	conn := postgisLayer("the_geom", 4326, "POLYGON")
	l, err := Open(context.Background(), conn, "granules")
	require.NoError(t, err)

	pgErr := &pgconn.PgError{Code: "23502", Message: "null value"}
	conn.execErr = pgErr
	err = l.CreateFeature(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, pgErr)

	conn.execErr = nil
	conn.rowsAffected = 0
	err = l.CreateFeature(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "affected 0 rows")
}
