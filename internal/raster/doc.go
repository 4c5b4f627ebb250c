// Package raster reads the georeferencing metadata of raster files without
// decoding pixel data.
//
// GeoTIFF and BigTIFF files are read from their first image directory:
// dimensions come from ImageWidth/ImageLength and the geo-transform from
// ModelTransformation or ModelTiepoint + ModelPixelScale, shifted by half a
// pixel when the raster type is PixelIsPoint. Any format whose header
// carries dimensions (TIFF, PNG, JPEG, GIF, BMP, WebP) can be georeferenced
// by an ESRI world file next to it. Rasters with no georeferencing report
// the identity transform.
package raster
