package raster

import (
	"fmt"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

const (
	keyGTRasterType    = 1025
	rasterPixelIsPoint = 2
)

// geoTransform derives the affine transform from the GeoTIFF model tags.
// ok is false when the file carries no usable georeferencing.
func (t *tiffReader) geoTransform() (gt mosaic.GeoTransform, ok bool, err error) {
	matrix, hasMatrix, err := t.floats(tagModelTransformation)
	if err != nil {
		return gt, false, err
	}
	tiepoints, hasTie, err := t.floats(tagModelTiepoint)
	if err != nil {
		return gt, false, err
	}
	scale, hasScale, err := t.floats(tagModelPixelScale)
	if err != nil {
		return gt, false, err
	}

	switch {
	case hasMatrix:
		if len(matrix) != 16 {
			return gt, false, fmt.Errorf("ModelTransformation has %d values, want 16", len(matrix))
		}
		gt = mosaic.GeoTransform{matrix[3], matrix[0], matrix[1], matrix[7], matrix[4], matrix[5]}
	case hasTie && hasScale:
		if len(tiepoints) < 6 || len(scale) < 2 {
			return gt, false, fmt.Errorf("short ModelTiepoint/ModelPixelScale (%d/%d values)", len(tiepoints), len(scale))
		}
		i, j := tiepoints[0], tiepoints[1]
		x, y := tiepoints[3], tiepoints[4]
		sx, sy := scale[0], scale[1]
		gt = mosaic.GeoTransform{x - i*sx, sx, 0, y + j*sy, 0, -sy}
	default:
		return gt, false, nil
	}

	rasterType, err := t.geoKey(keyGTRasterType)
	if err != nil {
		return gt, false, err
	}
	if rasterType == rasterPixelIsPoint {
		// tie point names a pixel centre; move the origin to its corner
		gt[0] -= gt[1]*0.5 + gt[2]*0.5
		gt[3] -= gt[4]*0.5 + gt[5]*0.5
	}
	return gt, true, nil
}

// geoKey returns a SHORT-valued key from the GeoKeyDirectory, or 0 when absent.
func (t *tiffReader) geoKey(id uint64) (uint64, error) {
	dir, ok, err := t.uints(tagGeoKeyDirectory)
	if err != nil || !ok {
		return 0, err
	}
	if len(dir) < 4 {
		return 0, fmt.Errorf("short GeoKeyDirectory")
	}
	n := int(dir[3])
	for k := 0; k < n; k++ {
		base := 4 + k*4
		if base+4 > len(dir) {
			return 0, fmt.Errorf("GeoKeyDirectory declares %d keys but holds %d", n, (len(dir)-4)/4)
		}
		if dir[base] != id {
			continue
		}
		// location 0 means the value is stored in place
		if dir[base+1] != 0 {
			return 0, nil
		}
		return dir[base+3], nil
	}
	return 0, nil
}
