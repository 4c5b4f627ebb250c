package discovery_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/asc1/imagemosaic-load/internal/discovery"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTracker struct {
	discovered int
	finished   bool
}

func (c *countingTracker) AddDiscovered()   { c.discovered++ }
func (c *countingTracker) FinishDiscovery() { c.finished = true }

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func collect(t *testing.T, d *discovery.Discoverer) []string {
	t.Helper()
	var out []string
	for p, err := range d.Paths(context.Background()) {
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestPaths_ExpandsPatternsInOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t,
		filepath.Join(dir, "a", "1.tif"),
		filepath.Join(dir, "a", "2.tif"),
		filepath.Join(dir, "a", "notes.txt"),
		filepath.Join(dir, "b", "3.png"),
	)

	d := discovery.New([]string{
		filepath.Join(dir, "b", "*.png"),
		filepath.Join(dir, "a", "*.tif"),
	})

	got := collect(t, d)
	require.Len(t, got, 3)
	assert.Equal(t, filepath.Join(dir, "b", "3.png"), got[0])

	rest := got[1:]
	sort.Strings(rest)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "1.tif"),
		filepath.Join(dir, "a", "2.tif"),
	}, rest)
}

func TestPaths_RecursivePattern(t *testing.T) {
	dir := t.TempDir()
	touch(t,
		filepath.Join(dir, "2024", "01", "x.tif"),
		filepath.Join(dir, "2024", "02", "deep", "y.tif"),
		filepath.Join(dir, "top.tif"),
	)

	got := collect(t, discovery.New([]string{filepath.Join(dir, "**", "*.tif")}))
	sort.Strings(got)
	assert.Equal(t, []string{
		filepath.Join(dir, "2024", "01", "x.tif"),
		filepath.Join(dir, "2024", "02", "deep", "y.tif"),
		filepath.Join(dir, "top.tif"),
	}, got)
}

func TestPaths_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "folder.tif"), 0o755))
	touch(t, filepath.Join(dir, "real.tif"))

	got := collect(t, discovery.New([]string{filepath.Join(dir, "*.tif")}))
	assert.Equal(t, []string{filepath.Join(dir, "real.tif")}, got)
}

func TestPaths_LiteralPathPassesThrough(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.tif")

	got := collect(t, discovery.New([]string{missing}))
	assert.Equal(t, []string{missing}, got)
}

func TestPaths_BracesInLiteralPath(t *testing.T) {
	dir := t.TempDir()
	granule := filepath.Join(dir, "scene{A}.tif")
	touch(t, granule)

	got := collect(t, discovery.New([]string{granule}))
	assert.Equal(t, []string{granule}, got)
}

func TestPaths_KeepsBaseAsWritten(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "mosaic", "a.tif"), filepath.Join(dir, "top.tif"))
	t.Chdir(dir)

	tests := []struct {
		pattern string
		want    string
	}{
		{"./mosaic/*.tif", filepath.FromSlash("./mosaic/a.tif")},
		{"mosaic/*.tif", filepath.FromSlash("mosaic/a.tif")},
		{"./*.tif", filepath.FromSlash("./top.tif")},
		{"*.tif", "top.tif"},
		{"mosaic/../*.tif", filepath.FromSlash("mosaic/../top.tif")},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got := collect(t, discovery.New([]string{filepath.FromSlash(tt.pattern)}))
			assert.Equal(t, []string{tt.want}, got)
		})
	}
}

func TestPaths_NoMatchesIsNotAnError(t *testing.T) {
	dir := t.TempDir()

	got := collect(t, discovery.New([]string{
		filepath.Join(dir, "*.tif"),
		filepath.Join(dir, "nope", "**", "*.tif"),
	}))
	assert.Empty(t, got)
}

func TestPaths_MalformedPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.tif"))

	d := discovery.New([]string{filepath.Join(dir, "[a.tif")})

	var gotErr error
	for _, err := range d.Paths(context.Background()) {
		if err != nil {
			gotErr = err
		}
	}
	require.Error(t, gotErr)
	assert.ErrorIs(t, gotErr, mosaic.ErrDiscovery)
}

func TestPaths_Dedupe(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.tif"), filepath.Join(dir, "b.tif"))

	patterns := []string{
		filepath.Join(dir, "a.tif"),
		filepath.Join(dir, "*.tif"),
	}

	all := collect(t, discovery.New(patterns))
	assert.Len(t, all, 3)

	unique := collect(t, discovery.New(patterns, discovery.WithDedupe(true)))
	sort.Strings(unique)
	assert.Equal(t, []string{filepath.Join(dir, "a.tif"), filepath.Join(dir, "b.tif")}, unique)
}

func TestPaths_StopsWhenConsumerBreaks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		touch(t, filepath.Join(dir, name+".tif"))
	}

	n := 0
	for range discovery.New([]string{filepath.Join(dir, "*.tif")}).Paths(context.Background()) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRun_CountsAndCloses(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.tif"), filepath.Join(dir, "b.tif"))

	tracker := &countingTracker{}
	d := discovery.New([]string{
		filepath.Join(dir, "*.tif"),
		filepath.Join(dir, "missing.tif"),
	}, discovery.WithTracker(tracker))

	out := make(chan string, 8)
	require.NoError(t, d.Run(context.Background(), out))

	var got []string
	for p := range out {
		got = append(got, p)
	}
	assert.Len(t, got, 3)
	assert.Equal(t, 3, tracker.discovered)
	assert.True(t, tracker.finished)
}

func TestRun_CancelledWhileQueueFull(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.tif"), filepath.Join(dir, "b.tif"))

	tracker := &countingTracker{}
	d := discovery.New([]string{filepath.Join(dir, "*.tif")}, discovery.WithTracker(tracker))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan string)
	err := d.Run(ctx, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, tracker.finished)
	assert.Equal(t, 0, tracker.discovered)

	_, open := <-out
	assert.False(t, open)
}

func TestRun_MalformedPatternFinishesDiscovery(t *testing.T) {
	tracker := &countingTracker{}
	d := discovery.New([]string{"[bad*"}, discovery.WithTracker(tracker))

	out := make(chan string, 1)
	err := d.Run(context.Background(), out)
	assert.ErrorIs(t, err, mosaic.ErrDiscovery)
	assert.True(t, tracker.finished)
}

func TestValidatePatterns(t *testing.T) {
	assert.NoError(t, discovery.ValidatePatterns([]string{"/data/*.tif", "/data/**/x?.png", "plain.tif", "/d/{a,b}.tif"}))

	err := discovery.ValidatePatterns([]string{"/data/*.tif", "/data/[x*.tif"})
	require.Error(t, err)
	assert.ErrorIs(t, err, mosaic.ErrDiscovery)
	assert.Contains(t, err.Error(), "[x*.tif")
}
