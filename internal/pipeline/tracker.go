package pipeline

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/asc1/imagemosaic-load/internal/metrics"
)

// SkipReason says why a granule was resolved without reaching the writer.
type SkipReason int

const (
	SkipNotFound SkipReason = iota
	SkipUnreadable
	SkipCancelled
	skipReasonCount
)

func (r SkipReason) String() string {
	switch r {
	case SkipNotFound:
		return "not_found"
	case SkipUnreadable:
		return "unreadable"
	case SkipCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(r))
	}
}

// Tracker holds the shared completion counters of a run. All methods are safe
// for concurrent use.
type Tracker struct {
	discovered atomic.Int64
	finished   atomic.Bool
	written    atomic.Int64
	failed     atomic.Int64
	skipped    [skipReasonCount]atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) AddDiscovered() { t.discovered.Add(1) }

// FinishDiscovery marks that no further paths will be discovered.
func (t *Tracker) FinishDiscovery() { t.finished.Store(true) }

func (t *Tracker) AddWritten() { t.written.Add(1) }

func (t *Tracker) AddFailed() { t.failed.Add(1) }

func (t *Tracker) AddSkipped(reason SkipReason) {
	if reason < 0 || reason >= skipReasonCount {
		reason = SkipUnreadable
	}
	t.skipped[reason].Add(1)
}

func (t *Tracker) Discovered() int64 { return t.discovered.Load() }

func (t *Tracker) DiscoveryFinished() bool { return t.finished.Load() }

func (t *Tracker) Written() int64 { return t.written.Load() }

func (t *Tracker) Failed() int64 { return t.failed.Load() }

func (t *Tracker) Skipped() int64 {
	var n int64
	for i := range t.skipped {
		n += t.skipped[i].Load()
	}
	return n
}

// Resolved counts paths that have reached a final outcome.
func (t *Tracker) Resolved() int64 {
	return t.Written() + t.Skipped() + t.Failed()
}

// Done reports whether discovery has finished and every discovered path has
// been resolved.
func (t *Tracker) Done() bool {
	if !t.DiscoveryFinished() {
		return false
	}
	return t.Resolved() == t.Discovered()
}

// Counts adapts the tracker to the metrics provider.
func (t *Tracker) Counts() metrics.Counts {
	return metrics.Counts{
		Discovered: t.Discovered(),
		Written:    t.Written(),
		NotFound:   t.skipped[SkipNotFound].Load(),
		Unreadable: t.skipped[SkipUnreadable].Load(),
		Cancelled:  t.skipped[SkipCancelled].Load(),
		Failed:     t.Failed(),
	}
}

// Summary is the outcome of a run.
type Summary struct {
	Layer      string
	Discovered int64
	Written    int64
	NotFound   int64
	Unreadable int64
	Cancelled  int64
	Failed     int64
	Duration   time.Duration
}

func (s Summary) Skipped() int64 {
	return s.NotFound + s.Unreadable + s.Cancelled
}

func (s Summary) String() string {
	return fmt.Sprintf("loaded %d of %d granules into %s in %s (not found: %d, unreadable: %d, cancelled: %d, failed: %d)",
		s.Written, s.Discovered, s.Layer, s.Duration.Round(time.Millisecond),
		s.NotFound, s.Unreadable, s.Cancelled, s.Failed)
}

func (t *Tracker) summary(layer string, d time.Duration) Summary {
	c := t.Counts()
	return Summary{
		Layer:      layer,
		Discovered: c.Discovered,
		Written:    c.Written,
		NotFound:   c.NotFound,
		Unreadable: c.Unreadable,
		Cancelled:  c.Cancelled,
		Failed:     c.Failed,
		Duration:   d,
	}
}
