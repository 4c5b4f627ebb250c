package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/asc1/imagemosaic-load/internal/logging"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
)

// Tracker receives discovery progress.
type Tracker interface {
	AddDiscovered()
	FinishDiscovery()
}

type nopTracker struct{}

func (nopTracker) AddDiscovered()   {}
func (nopTracker) FinishDiscovery() {}

var errStopWalk = errors.New("stop walk")

// Discoverer expands a list of granule patterns into matching file paths.
type Discoverer struct {
	patterns []string
	dedupe   bool
	tracker  Tracker
	logger   mosaic.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithDedupe drops paths that were already produced by an earlier match.
func WithDedupe(enabled bool) Option {
	return func(d *Discoverer) { d.dedupe = enabled }
}

// WithTracker reports every queued path and the end of discovery to t.
func WithTracker(t Tracker) Option {
	return func(d *Discoverer) {
		if t != nil {
			d.tracker = t
		}
	}
}

// WithLogger sets the logger used for per-pattern diagnostics.
func WithLogger(l mosaic.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Discoverer for the given patterns.
func New(patterns []string, opts ...Option) *Discoverer {
	d := &Discoverer{
		patterns: append([]string(nil), patterns...),
		tracker:  nopTracker{},
		logger:   logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ValidatePatterns reports the first malformed pattern, wrapped with mosaic.ErrDiscovery.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !hasMeta(p) {
			continue
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return fmt.Errorf("%w: malformed pattern %q: %w", mosaic.ErrDiscovery, p, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// Paths yields matches for every pattern in order. Iteration stops at the
// first expansion error, which is yielded with an empty path.
func (d *Discoverer) Paths(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		seen := make(map[uint64]struct{})
		for _, pattern := range d.patterns {
			matched := 0
			stopped := false
			err := expand(ctx, pattern, func(p string) bool {
				if d.dedupe && d.isDuplicate(seen, p) {
					d.logger.Debug("Skipping duplicate granule %s", p)
					return true
				}
				matched++
				if !yield(p, nil) {
					stopped = true
					return false
				}
				return true
			})
			if stopped {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if matched == 0 {
				d.logger.Warn("Pattern %q matched no granules", pattern)
			}
		}
	}
}

// Run feeds every match into out, counting each queued path on the tracker.
// The tracker is told that discovery finished and out is closed on return,
// whether or not an error occurred.
func (d *Discoverer) Run(ctx context.Context, out chan<- string) error {
	defer close(out)
	defer d.tracker.FinishDiscovery()

	for p, err := range d.Paths(ctx) {
		if err != nil {
			return err
		}
		select {
		case out <- p:
			d.tracker.AddDiscovered()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (d *Discoverer) isDuplicate(seen map[uint64]struct{}, p string) bool {
	key := p
	if abs, err := filepath.Abs(p); err == nil {
		key = abs
	}
	h := xxhash.Sum64String(filepath.Clean(key))
	if _, ok := seen[h]; ok {
		return true
	}
	seen[h] = struct{}{}
	return false
}

func expand(ctx context.Context, pattern string, yield func(string) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !hasMeta(pattern) {
		yield(pattern)
		return nil
	}

	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	fsys := os.DirFS(filepath.FromSlash(base))

	err := doublestar.GlobWalk(fsys, rest, func(rel string, entry fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !yield(filepath.FromSlash(joinBase(pattern, base, rel))) {
			return errStopWalk
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, errStopWalk):
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: expand %q: %w", mosaic.ErrDiscovery, pattern, err)
	}
}

// joinBase prefixes a match with the base exactly as it was written, so
// "./mosaic/*.tif" yields "./mosaic/a.tif" and "*.tif" yields "a.tif".
func joinBase(pattern, base, rel string) string {
	if base == "." && !strings.HasPrefix(filepath.ToSlash(pattern), "./") {
		return rel
	}
	if strings.HasSuffix(base, "/") {
		return base + rel
	}
	return base + "/" + rel
}

// hasMeta reports whether pattern needs expanding. Braces alone do not
// count: a granule named "scene{A}.tif" is a path, not an alternation.
func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
