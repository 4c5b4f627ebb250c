package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: fmt.Sprintf(format, args...)})
}

func (l *recordingLogger) Debug(format string, args ...any)    { l.add("debug", format, args...) }
func (l *recordingLogger) Info(format string, args ...any)     { l.add("info", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)     { l.add("warn", format, args...) }
func (l *recordingLogger) Error(format string, args ...any)    { l.add("error", format, args...) }
func (l *recordingLogger) Critical(format string, args ...any) { l.add("critical", format, args...) }
func (l *recordingLogger) With(string, any) mosaic.Logger      { return l }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range *l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

// mockCatalog records features and fails for locations listed in failFor.
// Locations in lostOnce are stored before the error is returned, the way a
// commit whose acknowledgement never arrives looks to the client.
type mockCatalog struct {
	mu       sync.Mutex
	records  []mosaic.GranuleRecord
	calls    int
	failFor  map[string]error
	failOnce map[string]error
	lostOnce map[string]error
	onCreate func(rec mosaic.GranuleRecord)
}

func (c *mockCatalog) Name() string { return "public.granules" }

func (c *mockCatalog) CreateFeature(ctx context.Context, rec mosaic.GranuleRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.onCreate != nil {
		c.onCreate(rec)
	}
	if err, ok := c.failOnce[rec.Location]; ok {
		delete(c.failOnce, rec.Location)
		return err
	}
	if err, ok := c.failFor[rec.Location]; ok {
		return err
	}
	c.records = append(c.records, rec)
	if err, ok := c.lostOnce[rec.Location]; ok {
		delete(c.lostOnce, rec.Location)
		return err
	}
	return nil
}

func (c *mockCatalog) locations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r.Location)
	}
	return out
}

// fixedOpener reports the same raster for every path except those in fail.
func fixedOpener(info mosaic.RasterInfo, fail map[string]error) mosaic.RasterOpener {
	return mosaic.RasterOpenerFunc(func(ctx context.Context, path string) (mosaic.RasterInfo, error) {
		if err, ok := fail[path]; ok {
			return mosaic.RasterInfo{}, err
		}
		return info, nil
	})
}

func makeGranules(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("granule"), 0o644))
		paths = append(paths, p)
	}
	return paths
}
