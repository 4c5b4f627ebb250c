package catalog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/asc1/imagemosaic-load/internal/catalog"
	"github.com/asc1/imagemosaic-load/internal/db"
	testhelpers "github.com/asc1/imagemosaic-load/internal/testing"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func footprint(x, y float64) mosaic.Footprint {
	return mosaic.Footprint{{x, y}, {x, y - 1}, {x + 1, y - 1}, {x + 1, y}, {x, y}}
}

func TestLayer_InsertsIntoPostGIS(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	ctx := context.Background()

	table := fmt.Sprintf("granules_%d", time.Now().UnixNano())
	testhelpers.CreateMosaicLayer(t, pool, testhelpers.LayerSpec{
		Table:        table,
		ExtraColumns: []string{"ingestion timestamptz"},
	})

	layer, err := catalog.Open(ctx, db.NewPoolAdapter(pool), table, catalog.WithIngestionColumn("ingestion"))
	require.NoError(t, err)
	assert.Equal(t, "the_geom", layer.GeometryColumn())
	assert.Equal(t, 4326, layer.SRID())

	require.NoError(t, layer.CreateFeature(ctx, mosaic.GranuleRecord{Location: "/data/a.tif", Footprint: footprint(10, 50)}))
	require.NoError(t, layer.CreateFeature(ctx, mosaic.GranuleRecord{Location: "/data/b.tif", Footprint: footprint(11, 50)}))

	var (
		n        int
		wkt      string
		srid     int
		ingested int
	)
	err = pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*), min(ST_AsText(the_geom)), min(ST_SRID(the_geom)), count(ingestion) FROM public.%s`, table)).
		Scan(&n, &wkt, &srid, &ingested)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "POLYGON((10 50,10 49,11 49,11 50,10 50))", wkt)
	assert.Equal(t, 4326, srid)
	assert.Equal(t, 2, ingested)
}

func TestLayer_MultiPolygonColumn(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	ctx := context.Background()

	table := fmt.Sprintf("multi_%d", time.Now().UnixNano())
	testhelpers.CreateMosaicLayer(t, pool, testhelpers.LayerSpec{
		Schema:       "mosaic",
		Table:        table,
		GeometryType: "MultiPolygon",
		SRID:         3857,
	})

	layer, err := catalog.Open(ctx, db.NewPoolAdapter(pool), "mosaic."+table)
	require.NoError(t, err)
	require.NoError(t, layer.CreateFeature(ctx, mosaic.GranuleRecord{Location: "/data/m.tif", Footprint: footprint(0, 0)}))

	var geomType string
	require.NoError(t, pool.QueryRow(ctx, fmt.Sprintf(`SELECT GeometryType(the_geom) FROM mosaic.%s`, table)).Scan(&geomType))
	assert.Equal(t, "MULTIPOLYGON", geomType)
}

func TestLayer_NotFound(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)

	_, err := pool.Exec(context.Background(), "CREATE EXTENSION IF NOT EXISTS postgis")
	require.NoError(t, err)

	_, err = catalog.Open(context.Background(), db.NewPoolAdapter(pool), "public.no_such_layer")
	assert.ErrorIs(t, err, mosaic.ErrLayerNotFound)
}
