package mosaic

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// GeoTransform holds the six affine coefficients mapping pixel (column, row)
// to georeferenced (X, Y):
//
//	X = t[0] + col*t[1] + row*t[2]
//	Y = t[3] + col*t[4] + row*t[5]
type GeoTransform [6]float64

// IdentityTransform is what an ungeoreferenced raster reports.
var IdentityTransform = GeoTransform{0, 1, 0, 0, 0, 1}

// Apply maps a pixel-space coordinate to geo-space.
func (t GeoTransform) Apply(col, row float64) orb.Point {
	return orb.Point{
		t[0] + col*t[1] + row*t[2],
		t[3] + col*t[4] + row*t[5],
	}
}

// RasterDimensions is the pixel size of a raster.
type RasterDimensions struct {
	Columns int
	Rows    int
}

// RasterInfo is the metadata a worker needs from an opened raster.
type RasterInfo struct {
	Transform  GeoTransform
	Dimensions RasterDimensions
	// Source names where the transform came from (e.g. "geotiff", "worldfile").
	Source string
}

// Footprint is a closed five-vertex ring: upper-left, lower-left,
// lower-right, upper-right, upper-left. Vertex order follows the transform;
// no winding normalization is applied.
type Footprint [5]orb.Point

// Ring returns the footprint as an orb ring (a copy).
func (f Footprint) Ring() orb.Ring {
	r := make(orb.Ring, len(f))
	copy(r, f[:])
	return r
}

// Polygon returns the footprint as a single-ring polygon.
func (f Footprint) Polygon() orb.Polygon {
	return orb.Polygon{f.Ring()}
}

// Closed reports whether the first and last vertices coincide.
func (f Footprint) Closed() bool {
	return f[0] == f[4]
}

// WKT renders the footprint polygon as well-known text.
func (f Footprint) WKT() string {
	return wkt.MarshalString(f.Polygon())
}

// GranuleRecord is one unit of work handed from a worker to the catalog writer.
type GranuleRecord struct {
	Location  string
	Footprint Footprint
}
