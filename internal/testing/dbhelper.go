package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/asc1/imagemosaic-load/internal/testinfra"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostGIS(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: IMAGEMOSAIC_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("IMAGEMOSAIC_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("IMAGEMOSAIC_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// GetTestPool opens a pool on connString that is closed when the test ends.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// LayerSpec describes a mosaic index table created for a test.
type LayerSpec struct {
	Schema       string
	Table        string
	GeometryType string
	SRID         int
	ExtraColumns []string
}

// CreateMosaicLayer creates a PostGIS-backed mosaic index table and drops it
// when the test ends. It also ensures the postgis extension exists.
func CreateMosaicLayer(t *testing.T, pool *pgxpool.Pool, spec LayerSpec) {
	t.Helper()
	ctx := context.Background()

	if spec.Schema == "" {
		spec.Schema = "public"
	}
	if spec.GeometryType == "" {
		spec.GeometryType = "Polygon"
	}
	if spec.SRID == 0 {
		spec.SRID = 4326
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS postgis",
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{spec.Schema}.Sanitize()),
	}
	table := pgx.Identifier{spec.Schema, spec.Table}.Sanitize()
	create := fmt.Sprintf("CREATE TABLE %s (fid serial PRIMARY KEY, location varchar(512) NOT NULL, the_geom geometry(%s, %d)",
		table, spec.GeometryType, spec.SRID)
	for _, col := range spec.ExtraColumns {
		create += ", " + col
	}
	stmts = append(stmts, create+")")

	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			t.Fatalf("Failed to prepare layer %s: %v (statement: %s)", table, err, s)
		}
	}

	t.Cleanup(func() {
		if _, err := pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table); err != nil {
			t.Logf("Warning: Failed to drop %s: %v", table, err)
		}
	})
}
