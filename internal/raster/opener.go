package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	// header decoders for world-file georeferenced images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// Transform sources reported in RasterInfo.Source.
const (
	SourceGeoTIFF   = "geotiff"
	SourceWorldFile = "worldfile"
	SourceNone      = "none"
)

// FileOpener reads raster metadata from the local filesystem.
// Safe for concurrent use; it holds no state between calls.
type FileOpener struct{}

// NewFileOpener creates a FileOpener.
func NewFileOpener() *FileOpener {
	return &FileOpener{}
}

// Open reads dimensions and geo-transform from path.
func (o *FileOpener) Open(ctx context.Context, path string) (mosaic.RasterInfo, error) {
	if err := ctx.Err(); err != nil {
		return mosaic.RasterInfo{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return mosaic.RasterInfo{}, err
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return mosaic.RasterInfo{}, fmt.Errorf("read header: %w", err)
	}

	if isTIFFHeader(head) {
		return openTIFF(f, path)
	}
	return openImage(f, path)
}

func openTIFF(f *os.File, path string) (mosaic.RasterInfo, error) {
	t, err := newTIFFReader(f)
	if err != nil {
		return mosaic.RasterInfo{}, err
	}
	cols, rows, err := t.dimensions()
	if err != nil {
		return mosaic.RasterInfo{}, err
	}
	info := mosaic.RasterInfo{Dimensions: mosaic.RasterDimensions{Columns: cols, Rows: rows}}

	gt, ok, err := t.geoTransform()
	if err != nil {
		return mosaic.RasterInfo{}, err
	}
	if ok {
		info.Transform = gt
		info.Source = SourceGeoTIFF
		return info, nil
	}
	return withWorldFile(info, path)
}

func openImage(f *os.File, path string) (mosaic.RasterInfo, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return mosaic.RasterInfo{}, err
	}
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return mosaic.RasterInfo{}, fmt.Errorf("unsupported raster format")
		}
		return mosaic.RasterInfo{}, fmt.Errorf("decode %s header: %w", format, err)
	}
	info := mosaic.RasterInfo{Dimensions: mosaic.RasterDimensions{Columns: cfg.Width, Rows: cfg.Height}}
	return withWorldFile(info, path)
}

func withWorldFile(info mosaic.RasterInfo, path string) (mosaic.RasterInfo, error) {
	gt, _, ok, err := findWorldFile(path)
	if err != nil {
		return mosaic.RasterInfo{}, err
	}
	if ok {
		info.Transform = gt
		info.Source = SourceWorldFile
		return info, nil
	}
	info.Transform = mosaic.IdentityTransform
	info.Source = SourceNone
	return info, nil
}

// WithTimeout bounds each Open call. A call that outlives the timeout is
// abandoned: its goroutine finishes in the background and its result is
// discarded.
func WithTimeout(o mosaic.RasterOpener, d time.Duration) mosaic.RasterOpener {
	if d <= 0 {
		return o
	}
	return mosaic.RasterOpenerFunc(func(ctx context.Context, path string) (mosaic.RasterInfo, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			info mosaic.RasterInfo
			err  error
		}
		done := make(chan result, 1)
		go func() {
			info, err := o.Open(ctx, path)
			done <- result{info, err}
		}()

		select {
		case r := <-done:
			return r.info, r.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return mosaic.RasterInfo{}, fmt.Errorf("open timed out after %s", d)
			}
			return mosaic.RasterInfo{}, ctx.Err()
		}
	})
}
