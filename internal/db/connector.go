package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asc1/imagemosaic-load/internal/logging"
	"github.com/asc1/imagemosaic-load/internal/retry"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns covers the single writer plus the startup layer lookup.
	DefaultMaxConns = 2

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps the writer's connection across slow
	// stretches of raster opening.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger mosaic.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Debug("PostgreSQL %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// StandardConnector opens a pool with username/password (or .pgpass)
// authentication, retrying transient failures.
type StandardConnector struct {
	config   *mosaic.ConnectionConfig
	logger   mosaic.Logger
	executor *retry.Executor
}

var _ mosaic.Connector = (*StandardConnector)(nil)

// ConnectorOption configures a StandardConnector.
type ConnectorOption func(*StandardConnector)

// WithConnectBackoff replaces the default retry schedule.
func WithConnectBackoff(b mosaic.BackoffStrategy) ConnectorOption {
	return func(c *StandardConnector) {
		c.executor = retry.NewExecutor(retry.NewClassifier(), b)
	}
}

// NewStandardConnector retries up to mosaic.DefaultConnectRetries times with
// exponential backoff unless overridden.
func NewStandardConnector(config *mosaic.ConnectionConfig, logger mosaic.Logger, opts ...ConnectorOption) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	c := &StandardConnector{
		config: config,
		logger: logger,
		executor: retry.NewExecutor(retry.NewClassifier(), retry.NewBackoff(mosaic.DefaultConnectRetries,
			retry.WithInitialDelay(mosaic.DefaultRetryInitialDelay),
			retry.WithMaxDelay(mosaic.DefaultRetryMaxDelay),
		)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes a connection pool and verifies it with a ping.
// Failures wrap mosaic.ErrConnectionFailed.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid connection settings: %w", mosaic.ErrConnectionFailed, err)
	}
	configurePool(poolConfig, c.logger)

	var pool *pgxpool.Pool
	exec := c.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("Connection attempt %d to %s:%d failed, retrying in %s: %v",
			attempt+1, c.config.Host, c.config.Port, delay, err)
	})

	err = exec.Do(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig.Copy())
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mosaic.ErrConnectionFailed,
			wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database))
	}
	return pool, nil
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong --host or --port

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not reachable from this machine

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong --password, $PGPASSWORD or ~/.pgpass entry
  - Wrong --user (default: %s)

Original error: %w`, database, mosaic.DefaultUser, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

Create it with PostGIS enabled:
  createdb %s && psql -d %s -c 'CREATE EXTENSION postgis'

Original error: %w`, database, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server does not accept the requested --sslmode
  - Certificate verification failed (try --sslmode=require)

Original error: %w`, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
