package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asc1/imagemosaic-load/internal/footprint"
	"github.com/asc1/imagemosaic-load/internal/metrics"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// WorkerState is the lifecycle state of one worker.
type WorkerState int32

const (
	// WorkerRunning processes every path it dequeues.
	WorkerRunning WorkerState = iota
	// WorkerDraining resolves remaining paths as cancelled without opening them.
	WorkerDraining
	// WorkerDone has seen the path queue close.
	WorkerDone
)

func (s WorkerState) String() string {
	switch s {
	case WorkerRunning:
		return "running"
	case WorkerDraining:
		return "draining"
	case WorkerDone:
		return "done"
	default:
		return "unknown"
	}
}

// Pool turns granule paths into footprint records.
type Pool struct {
	size    int
	opener  mosaic.RasterOpener
	tracker *Tracker
	logger  mosaic.Logger
	metrics *metrics.Provider
	stat    func(string) (fs.FileInfo, error)
	states  []atomic.Int32
}

func NewPool(size int, opener mosaic.RasterOpener, tracker *Tracker, logger mosaic.Logger, m *metrics.Provider) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:    size,
		opener:  opener,
		tracker: tracker,
		logger:  logger,
		metrics: m,
		stat:    os.Stat,
		states:  make([]atomic.Int32, size),
	}
}

// State returns the current state of worker i.
func (p *Pool) State(i int) WorkerState {
	return WorkerState(p.states[i].Load())
}

// Run starts the workers and blocks until paths is closed and drained. out is
// closed once every worker has stopped.
func (p *Pool) Run(ctx context.Context, paths <-chan string, out chan<- mosaic.GranuleRecord) {
	defer close(out)

	var wg sync.WaitGroup
	wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id, paths, out)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) work(ctx context.Context, id int, paths <-chan string, out chan<- mosaic.GranuleRecord) {
	log := p.logger.With("worker", id)
	p.setState(id, WorkerRunning)
	defer p.setState(id, WorkerDone)

	for path := range paths {
		if ctx.Err() != nil {
			p.drain(id, log, path)
			continue
		}

		rec, err := p.process(ctx, log, path)
		if err != nil {
			p.skip(id, log, path, err)
			continue
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			p.drain(id, log, path)
		}
	}
}

func (p *Pool) process(ctx context.Context, log mosaic.Logger, path string) (mosaic.GranuleRecord, error) {
	start := time.Now()
	defer func() { p.metrics.ObserveOpen(time.Since(start)) }()

	log.Debug("Processing granule %s", path)

	if err := p.validate(path); err != nil {
		return mosaic.GranuleRecord{}, err
	}

	info, err := p.opener.Open(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return mosaic.GranuleRecord{}, ctx.Err()
		}
		return mosaic.GranuleRecord{}, &mosaic.RasterOpenError{Path: path, Err: err}
	}

	fp := footprint.Compute(info.Transform, info.Dimensions)
	log.Info("Image %s - Footprint: %s", path, fp.WKT())

	return mosaic.GranuleRecord{Location: path, Footprint: fp}, nil
}

func (p *Pool) validate(path string) error {
	info, err := p.stat(path)
	if err != nil {
		return &mosaic.GranuleNotFoundError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &mosaic.GranuleNotFoundError{Path: path}
	}
	return nil
}

func (p *Pool) skip(id int, log mosaic.Logger, path string, err error) {
	switch {
	case errors.Is(err, mosaic.ErrGranuleNotFound):
		log.Error("Unable to locate granule %s: %v", path, err)
		p.tracker.AddSkipped(SkipNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		p.drain(id, log, path)
	default:
		log.Error("Unable to open granule %s: %v", path, err)
		p.tracker.AddSkipped(SkipUnreadable)
	}
}

func (p *Pool) drain(id int, log mosaic.Logger, path string) {
	if p.State(id) != WorkerDraining {
		log.Warn("Run cancelled, draining remaining granules")
		p.setState(id, WorkerDraining)
	}
	log.Debug("Skipping granule %s: cancelled", path)
	p.tracker.AddSkipped(SkipCancelled)
}

func (p *Pool) setState(id int, s WorkerState) {
	p.states[id].Store(int32(s))
}
