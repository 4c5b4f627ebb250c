package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/asc1/imagemosaic-load/internal/metrics"
	"github.com/asc1/imagemosaic-load/internal/retry"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

const maxReportedFailures = 20

// Writer is the single consumer of footprint records. It is the only
// goroutine that talks to the catalog.
type Writer struct {
	catalog  mosaic.Catalog
	tracker  *Tracker
	logger   mosaic.Logger
	metrics  *metrics.Provider
	executor *retry.Executor
	lenient  bool
	failures []string
}

func NewWriter(catalog mosaic.Catalog, tracker *Tracker, logger mosaic.Logger, executor *retry.Executor, lenient bool, m *metrics.Provider) *Writer {
	w := &Writer{
		catalog: catalog,
		tracker: tracker,
		logger:  logger,
		metrics: m,
		lenient: lenient,
	}
	w.executor = executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		w.logger.Warn("Insert into %s failed, retrying in %s (attempt %d): %v", catalog.Name(), delay, attempt+1, err)
	})
	return w
}

// Run writes records until the run is complete, the queue closes, or ctx ends.
// In strict mode the first failed insert stops the run. In lenient mode
// failures are counted and reported once the queue is exhausted.
func (w *Writer) Run(ctx context.Context, records <-chan mosaic.GranuleRecord) error {
	if w.tracker.Done() {
		return w.finish()
	}
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return w.finish()
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.write(ctx, rec); err != nil && !w.lenient {
				return err
			}
			if w.tracker.Done() {
				return w.finish()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Writer) write(ctx context.Context, rec mosaic.GranuleRecord) error {
	start := time.Now()
	err := w.executor.Do(ctx, func(ctx context.Context) error {
		return w.catalog.CreateFeature(ctx, rec)
	})
	w.metrics.ObserveWrite(time.Since(start))

	if err != nil {
		w.tracker.AddFailed()
		err = fmt.Errorf("%w: %s: %w", mosaic.ErrFeatureCreate, rec.Location, err)
		if !w.lenient {
			w.logger.Critical("Unable to create feature in %s: %v", w.catalog.Name(), err)
			return err
		}
		w.logger.Error("Unable to create feature in %s: %v", w.catalog.Name(), err)
		if len(w.failures) < maxReportedFailures {
			w.failures = append(w.failures, rec.Location)
		}
		return err
	}

	w.tracker.AddWritten()
	w.logger.Debug("Created feature for %s", rec.Location)
	return nil
}

func (w *Writer) finish() error {
	failed := w.tracker.Failed()
	if failed == 0 {
		return nil
	}
	for _, loc := range w.failures {
		w.logger.Error("Not loaded: %s", loc)
	}
	if int(failed) > len(w.failures) {
		w.logger.Error("... and %d more", int(failed)-len(w.failures))
	}
	return fmt.Errorf("%w: %d of %d features could not be written", mosaic.ErrIncompleteLoad, failed, w.tracker.Written()+failed)
}
