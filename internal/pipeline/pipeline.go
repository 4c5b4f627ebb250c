package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/asc1/imagemosaic-load/internal/discovery"
	"github.com/asc1/imagemosaic-load/internal/logging"
	"github.com/asc1/imagemosaic-load/internal/metrics"
	"github.com/asc1/imagemosaic-load/internal/retry"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"golang.org/x/sync/errgroup"
)

// Pipeline wires discovery, the worker pool and the writer for one run.
type Pipeline struct {
	cfg     mosaic.LoadConfig
	opener  mosaic.RasterOpener
	catalog mosaic.Catalog
	logger  mosaic.Logger
	metrics *metrics.Provider
	backoff mosaic.BackoffStrategy
	tracker *Tracker
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l mosaic.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m *metrics.Provider) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithBackoff overrides the retry schedule used for feature inserts.
func WithBackoff(b mosaic.BackoffStrategy) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.backoff = b
		}
	}
}

// New builds a pipeline. opener is used as given; wrap it with
// raster.WithTimeout to bound slow opens.
func New(cfg mosaic.LoadConfig, opener mosaic.RasterOpener, catalog mosaic.Catalog, opts ...Option) *Pipeline {
	if cfg.Threads < 1 {
		cfg.Threads = mosaic.DefaultThreads
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = mosaic.DefaultQueueSize
	}
	p := &Pipeline{
		cfg:     cfg,
		opener:  opener,
		catalog: catalog,
		logger:  logging.NewNullLogger(),
		tracker: NewTracker(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.backoff == nil {
		p.backoff = retry.NewBackoff(cfg.WriteRetries)
	}
	p.metrics.TrackCounts(p.tracker.Counts)
	return p
}

// Tracker exposes the run's completion counters.
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// Run loads every granule and returns once all discovered paths are resolved.
// The writer runs on the calling goroutine. A writer failure cancels discovery
// and the workers, which then drain their queue.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make(chan string, p.cfg.QueueSize)
	records := make(chan mosaic.GranuleRecord, p.cfg.QueueSize)

	disc := discovery.New(p.cfg.Patterns,
		discovery.WithDedupe(p.cfg.Dedupe),
		discovery.WithTracker(p.tracker),
		discovery.WithLogger(p.logger),
	)
	pool := NewPool(p.cfg.Threads, p.opener, p.tracker, p.logger, p.metrics)
	writer := NewWriter(p.catalog, p.tracker, p.logger,
		retry.NewExecutor(retry.NewInsertClassifier(), p.backoff), p.cfg.Lenient, p.metrics)

	p.logger.Debug("Starting %d workers (queue size %d)", p.cfg.Threads, p.cfg.QueueSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return disc.Run(gctx, paths)
	})
	g.Go(func() error {
		pool.Run(gctx, paths, records)
		return nil
	})

	writeErr := writer.Run(gctx, records)
	if writeErr != nil {
		cancel()
	}
	groupErr := g.Wait()

	summary := p.tracker.summary(p.catalog.Name(), time.Since(start))

	err := writeErr
	if groupErr != nil && (err == nil || errors.Is(err, context.Canceled)) {
		err = groupErr
	}
	if err == nil && !p.tracker.Done() {
		p.logger.Warn("Run ended with %d of %d granules unresolved", summary.Discovered-p.tracker.Resolved(), summary.Discovered)
	}

	if err != nil {
		p.logger.Error("Load into %s stopped: %v", summary.Layer, err)
	}
	p.logger.Info("Summary: %s", summary)
	return summary, err
}
