package mosaic

// Logger provides a pluggable logging interface for load operations.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	// Debug logs per-granule diagnostic detail.
	Debug(format string, args ...any)

	// Info logs normal progress.
	Info(format string, args ...any)

	// Warn logs recoverable problems (skipped granules).
	Warn(format string, args ...any)

	// Error logs failures.
	Error(format string, args ...any)

	// Critical logs failures that abort the run.
	Critical(format string, args ...any)

	// With returns a child logger that adds key=value to every line.
	With(key string, value any) Logger
}
