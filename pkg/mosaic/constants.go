package mosaic

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load completed
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitLayerNotFound   = 12 // Target layer lookup failed
	ExitWriteFailed     = 13 // Feature creation failed
	ExitDiscoveryFailed = 14 // Granule pattern expansion failed
)

const (
	// DefaultPort is the PostgreSQL port used when none is configured.
	DefaultPort = 5432

	// DefaultUser is the database role used when none is configured.
	DefaultUser = "geoserver"

	// DefaultSSLMode is the libpq sslmode used when none is configured.
	DefaultSSLMode = "prefer"

	// DefaultSchema is the schema assumed for a layer name without a dot.
	DefaultSchema = "public"

	// DefaultThreads is the number of granule workers.
	DefaultThreads = 4

	// DefaultQueueSize bounds both the path queue and the record queue.
	DefaultQueueSize = 64

	// DefaultOpenTimeout bounds a single raster open.
	DefaultOpenTimeout = 30 * time.Second

	// DefaultWriteRetries is the number of retries for a transient write failure.
	DefaultWriteRetries = 3

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultConnectRetries is the number of retries for a transient connection failure.
	DefaultConnectRetries = 3

	// DefaultMetricsJob is the Pushgateway job name used when none is configured.
	DefaultMetricsJob = "imagemosaic_load"

	// LocationField is the catalog column holding the granule path.
	LocationField = "location"
)
