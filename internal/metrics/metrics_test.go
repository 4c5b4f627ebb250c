package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_TrackCountsReadsSource(t *testing.T) {
	p := New(BuildInfo{Version: "test"})

	counts := Counts{Discovered: 6, Written: 5, NotFound: 1}
	p.TrackCounts(func() Counts { return counts })

	expected := `
# HELP imagemosaic_features_written_total Features inserted into the mosaic layer.
# TYPE imagemosaic_features_written_total counter
imagemosaic_features_written_total 5
# HELP imagemosaic_granules_discovered_total Granule paths queued by discovery.
# TYPE imagemosaic_granules_discovered_total counter
imagemosaic_granules_discovered_total 6
`
	err := testutil.GatherAndCompare(p.Registry(), strings.NewReader(expected),
		"imagemosaic_features_written_total", "imagemosaic_granules_discovered_total")
	require.NoError(t, err)

	counts.Written = 6
	err = testutil.GatherAndCompare(p.Registry(), strings.NewReader(strings.Replace(expected, "total 5", "total 6", 1)),
		"imagemosaic_features_written_total", "imagemosaic_granules_discovered_total")
	require.NoError(t, err)
}

func TestProvider_SkippedByReason(t *testing.T) {
	p := New(BuildInfo{})
	p.TrackCounts(func() Counts { return Counts{NotFound: 2, Unreadable: 1, Cancelled: 3} })

	expected := `
# HELP imagemosaic_granules_skipped_total Granules resolved without a feature being written, by reason.
# TYPE imagemosaic_granules_skipped_total counter
imagemosaic_granules_skipped_total{reason="cancelled"} 3
imagemosaic_granules_skipped_total{reason="not_found"} 2
imagemosaic_granules_skipped_total{reason="unreadable"} 1
`
	require.NoError(t, testutil.GatherAndCompare(p.Registry(), strings.NewReader(expected), "imagemosaic_granules_skipped_total"))
}

func TestProvider_ObserveDurations(t *testing.T) {
	p := New(BuildInfo{})
	p.ObserveOpen(20 * time.Millisecond)
	p.ObserveWrite(5 * time.Millisecond)
	p.ObserveWrite(7 * time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(p.openSeconds))
	n, err := testutil.GatherAndCount(p.Registry(), "imagemosaic_feature_write_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProvider_NilIsSafe(t *testing.T) {
	var p *Provider
	p.TrackCounts(func() Counts { return Counts{} })
	p.ObserveOpen(time.Second)
	p.ObserveWrite(time.Second)
	assert.Nil(t, p.Registry())
	assert.NoError(t, p.Push(context.Background(), "http://unused", "job", nil))
}

func TestProvider_Push(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := New(BuildInfo{Version: "1.2.3"})
	p.TrackCounts(func() Counts { return Counts{Written: 4} })

	err := p.Push(context.Background(), srv.URL, "imagemosaic_load", map[string]string{"layer": "public.granules"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/imagemosaic_load/layer/public.granules", path)
	assert.NotEmpty(t, body)
}

func TestProvider_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(BuildInfo{})
	err := p.Push(context.Background(), srv.URL, "job", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), srv.URL)
}
