package mosaic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig represents resolved connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AppName is reported to the server as application_name.
	AppName string

	// ConnectTimeout bounds a single connection attempt (0 = driver default).
	ConnectTimeout time.Duration

	// AdditionalParams holds connection string parameters without a dedicated field.
	AdditionalParams map[string]string
}

// LoadConfig contains all parameters needed for one load run.
type LoadConfig struct {
	// Patterns are the granule path patterns, in command-line order.
	Patterns []string

	// Layer is the target table, "schema.table" or "table".
	Layer string

	// ConnectionString is the resolved PostgreSQL URI.
	ConnectionString string

	// Threads is the number of concurrent granule workers.
	Threads int

	// QueueSize bounds the path and record queues.
	QueueSize int

	// OpenTimeout bounds a single raster open (0 = unbounded).
	OpenTimeout time.Duration

	// Timeout bounds the whole run (0 = unbounded).
	Timeout time.Duration

	// Lenient keeps loading after a feature-creation failure.
	Lenient bool

	// Dedupe drops paths already discovered by an earlier pattern.
	Dedupe bool

	// IngestionColumn, when set, receives the write timestamp for each feature.
	IngestionColumn string

	// WriteRetries is the number of retries for transient write failures.
	WriteRetries int

	// Pushgateway is the Prometheus Pushgateway URL (empty = no push).
	Pushgateway string

	// MetricsJob is the Pushgateway job name.
	MetricsJob string
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if len(c.Patterns) == 0 {
		errs = append(errs, fmt.Errorf("at least one granule pattern is required: %w", ErrInvalidConfig))
	}
	for i, p := range c.Patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("granule pattern %d is empty: %w", i+1, ErrInvalidConfig))
		}
	}

	if _, _, err := SplitLayerName(c.Layer); err != nil {
		errs = append(errs, err)
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be at least 1, got %d: %w", c.Threads, ErrInvalidConfig))
	}

	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queue size cannot be negative: %w", ErrInvalidConfig))
	}

	if c.OpenTimeout < 0 || c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeouts cannot be negative: %w", ErrInvalidConfig))
	}

	if c.WriteRetries < 0 {
		errs = append(errs, fmt.Errorf("write retries cannot be negative: %w", ErrInvalidConfig))
	}

	if c.IngestionColumn == LocationField {
		errs = append(errs, fmt.Errorf("ingestion column cannot be %q, it holds the granule path: %w", LocationField, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// SplitLayerName splits "schema.table" into its parts. A name without a dot
// lives in DefaultSchema.
func SplitLayerName(name string) (schema, table string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("layer is required (schema.table_name): %w", ErrInvalidConfig)
	}
	schema, table, found := strings.Cut(name, ".")
	if !found {
		return DefaultSchema, name, nil
	}
	if schema == "" || table == "" || strings.Contains(table, ".") {
		return "", "", fmt.Errorf("layer %q must be schema.table_name: %w", name, ErrInvalidConfig)
	}
	return schema, table, nil
}
