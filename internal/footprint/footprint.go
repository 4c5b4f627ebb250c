// Package footprint maps a raster's pixel extent to its geographic outline.
package footprint

import "github.com/asc1/imagemosaic-load/pkg/mosaic"

// Compute returns the closed ring of the raster's four corners in the order
// upper-left, lower-left, lower-right, upper-right, upper-left.
//
// The winding follows whatever the transform produces; a north-up raster
// (negative pixel height) yields a counter-clockwise ring. A zero-size raster
// collapses to its origin and is returned as-is.
func Compute(t mosaic.GeoTransform, dims mosaic.RasterDimensions) mosaic.Footprint {
	cols := float64(dims.Columns)
	rows := float64(dims.Rows)

	ul := t.Apply(0, 0)
	return mosaic.Footprint{
		ul,
		t.Apply(0, rows),
		t.Apply(cols, rows),
		t.Apply(cols, 0),
		ul,
	}
}
