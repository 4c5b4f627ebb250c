package mosaic

import "context"

// RasterOpener reads georeferencing metadata from a raster file.
// Implementations must be safe for concurrent use; every worker shares one.
type RasterOpener interface {
	Open(ctx context.Context, path string) (RasterInfo, error)
}

// RasterOpenerFunc adapts a function to RasterOpener.
type RasterOpenerFunc func(ctx context.Context, path string) (RasterInfo, error)

// Open calls f(ctx, path).
func (f RasterOpenerFunc) Open(ctx context.Context, path string) (RasterInfo, error) {
	return f(ctx, path)
}
