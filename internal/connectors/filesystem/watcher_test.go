package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// changeCollector records watcher callbacks.
type changeCollector struct {
	mu    sync.Mutex
	paths []string
}

func (c *changeCollector) record(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *changeCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, dir string, collector *changeCollector) {
	t.Helper()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, collector.record) //nolint:errcheck // returns ctx.Err on shutdown
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
}

func TestWatcherReportsChangedFile(t *testing.T) {
	dir := t.TempDir()
	collector := &changeCollector{}
	startWatcher(t, dir, collector)

	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	require.True(t, waitFor(t, func() bool { return len(collector.snapshot()) > 0 }))
	assert.Contains(t, collector.snapshot(), path)
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	collector := &changeCollector{}
	startWatcher(t, dir, collector)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "binary.pdf"), []byte("x"), 0o644))

	// Give the debounce window time to elapse.
	time.Sleep(debounceDelay + 200*time.Millisecond)
	assert.Empty(t, collector.snapshot())
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	collector := &changeCollector{}
	startWatcher(t, dir, collector)

	path := filepath.Join(dir, "notes.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("rev"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.True(t, waitFor(t, func() bool { return len(collector.snapshot()) > 0 }))
	// Rapid writes collapse into a single notification.
	time.Sleep(debounceDelay + 200*time.Millisecond)
	assert.Len(t, collector.snapshot(), 1)
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()
	collector := &changeCollector{}
	startWatcher(t, dir, collector)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Let the watcher register the new directory before writing into it.
	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(sub, "new.md")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	require.True(t, waitFor(t, func() bool {
		for _, p := range collector.snapshot() {
			if p == path {
				return true
			}
		}
		return false
	}))
}
