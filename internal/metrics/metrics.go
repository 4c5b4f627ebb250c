// Package metrics exposes Prometheus metrics for a load run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "imagemosaic"

// Counts is a point-in-time view of a run's progress.
type Counts struct {
	Discovered int64
	Written    int64
	NotFound   int64
	Unreadable int64
	Cancelled  int64
	Failed     int64
}

type BuildInfo struct {
	Version string
	Commit  string
}

// Provider owns the registry for one run. A nil *Provider is valid and
// records nothing.
type Provider struct {
	reg          *prometheus.Registry
	buildInfo    *prometheus.GaugeVec
	openSeconds  prometheus.Histogram
	writeSeconds prometheus.Histogram
}

func New(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build info for this binary (value is always 1).",
		},
		[]string{"version", "commit"},
	)
	v := build
	if v.Version == "" {
		v.Version = "dev"
	}
	info.WithLabelValues(v.Version, v.Commit).Set(1)

	openSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "granule_open_seconds",
		Help:      "Time spent validating and opening one granule.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})
	writeSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feature_write_seconds",
		Help:      "Time spent inserting one feature, retries included.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	reg.MustRegister(info, openSeconds, writeSeconds)

	return &Provider{
		reg:          reg,
		buildInfo:    info,
		openSeconds:  openSeconds,
		writeSeconds: writeSeconds,
	}
}

// TrackCounts registers counters that read their values from source on every
// collection.
func (p *Provider) TrackCounts(source func() Counts) {
	if p == nil {
		return
	}
	counter := func(name, help string, pick func(Counts) int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(source())) })
	}
	skipped := func(reason string, pick func(Counts) int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "granules_skipped_total",
			Help:        "Granules resolved without a feature being written, by reason.",
			ConstLabels: prometheus.Labels{"reason": reason},
		}, func() float64 { return float64(pick(source())) })
	}

	p.reg.MustRegister(
		counter("granules_discovered_total", "Granule paths queued by discovery.",
			func(c Counts) int64 { return c.Discovered }),
		counter("features_written_total", "Features inserted into the mosaic layer.",
			func(c Counts) int64 { return c.Written }),
		counter("features_failed_total", "Features the writer could not insert.",
			func(c Counts) int64 { return c.Failed }),
		skipped("not_found", func(c Counts) int64 { return c.NotFound }),
		skipped("unreadable", func(c Counts) int64 { return c.Unreadable }),
		skipped("cancelled", func(c Counts) int64 { return c.Cancelled }),
	)
}

func (p *Provider) ObserveOpen(d time.Duration) {
	if p == nil {
		return
	}
	p.openSeconds.Observe(d.Seconds())
}

func (p *Provider) ObserveWrite(d time.Duration) {
	if p == nil {
		return
	}
	p.writeSeconds.Observe(d.Seconds())
}

func (p *Provider) Registry() *prometheus.Registry {
	if p == nil {
		return nil
	}
	return p.reg
}

// Push sends every registered metric to a Prometheus Pushgateway, replacing
// the metrics previously pushed under the same job and grouping labels.
func (p *Provider) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	if p == nil || url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(p.reg)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
