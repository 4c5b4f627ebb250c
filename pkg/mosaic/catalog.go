package mosaic

import "context"

// Catalog is the target spatial layer. The pipeline never manages its
// connection lifecycle; it only creates features. Implementations need not
// be safe for concurrent use: a single writer goroutine owns it.
type Catalog interface {
	// CreateFeature inserts one row holding the granule location and footprint.
	CreateFeature(ctx context.Context, rec GranuleRecord) error

	// Name returns the qualified layer name for diagnostics.
	Name() string
}
