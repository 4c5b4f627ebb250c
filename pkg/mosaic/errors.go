package mosaic

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrLayerNotFound indicates the target spatial layer does not exist
	// or has no registered geometry column.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrGranuleNotFound indicates a discovered path is not a regular file.
	ErrGranuleNotFound = errors.New("granule not found")

	// ErrRasterOpen indicates a granule could not be read as a raster.
	ErrRasterOpen = errors.New("raster open failed")

	// ErrFeatureCreate indicates a catalog insert failed.
	ErrFeatureCreate = errors.New("feature creation failed")

	// ErrDiscovery indicates a granule pattern could not be expanded.
	ErrDiscovery = errors.New("granule discovery failed")

	// ErrIncompleteLoad indicates a lenient run finished with write failures.
	ErrIncompleteLoad = errors.New("load finished with failures")
)

// GranuleNotFoundError reports a path that did not resolve to a regular file
// when a worker validated it.
type GranuleNotFoundError struct {
	Path string
	Err  error
}

func (e *GranuleNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to locate granule %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("unable to locate granule %q", e.Path)
}

func (e *GranuleNotFoundError) Unwrap() error { return e.Err }

// Is matches ErrGranuleNotFound.
func (e *GranuleNotFoundError) Is(target error) bool { return target == ErrGranuleNotFound }

// RasterOpenError reports a granule whose raster metadata could not be read.
type RasterOpenError struct {
	Path string
	Err  error
}

func (e *RasterOpenError) Error() string {
	return fmt.Sprintf("unable to open raster %q: %v", e.Path, e.Err)
}

func (e *RasterOpenError) Unwrap() error { return e.Err }

// Is matches ErrRasterOpen.
func (e *RasterOpenError) Is(target error) bool { return target == ErrRasterOpen }

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrLayerNotFound):
		return ExitLayerNotFound
	case errors.Is(err, ErrFeatureCreate), errors.Is(err, ErrIncompleteLoad):
		return ExitWriteFailed
	case errors.Is(err, ErrDiscovery):
		return ExitDiscoveryFailed
	}

	// cobra reports usage problems as plain errors
	errStr := err.Error()
	for _, p := range []string{"unknown flag", "unknown shorthand flag", "accepts ", "requires at least", "missing required argument", "required flag", "invalid argument"} {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
