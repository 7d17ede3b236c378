package codegraph

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/metrics"
)

func startWatch(t *testing.T, e *Engine, root string) (cancel context.CancelFunc, done chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, root)
	}()
	// Give the watcher time to register before mutating the tree.
	time.Sleep(150 * time.Millisecond)
	t.Cleanup(func() {
		cancelFn()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watch did not shut down")
		}
	})
	return cancelFn, done
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// countingMetrics wraps a MetricsStore and counts fingerprint loads. A
// reconciliation cycle that rescans loads the map twice (once for the diff,
// once inside the scan), so the count exposes how many cycles a burst ran.
type countingMetrics struct {
	MetricsStore
	mu    sync.Mutex
	loads int
}

func (c *countingMetrics) AllFileHashes(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	return c.MetricsStore.AllFileHashes(ctx)
}

func (c *countingMetrics) loadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func TestWatch_DebounceCoalescesBurst(t *testing.T) {
	root := t.TempDir()
	g := newFakeGraph()

	m, err := metrics.NewStore(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	cm := &countingMetrics{MetricsStore: m}

	e := New(g, cm,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithDebounce(100*time.Millisecond),
	)

	startWatch(t, e, root)

	// Two writes inside one debounce window coalesce into one cycle that
	// picks up both files.
	writeFile(t, root, "a.ts", tsHelper)
	writeFile(t, root, "b.ts", tsAPI)

	waitFor(t, 3*time.Second, func() bool {
		return g.has("a.ts") && g.has("b.ts")
	})

	// Let any pending debounce window drain, then confirm the burst produced
	// a single cycle rather than one per write.
	time.Sleep(3 * e.debounce)
	assert.Equal(t, 2, cm.loadCount(), "two fingerprint loads mean one cycle with one scan batch")
}

func TestWatch_DeleteRemovesFileData(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g, WithDebounce(100*time.Millisecond))
	ctx := context.Background()

	_, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	require.True(t, g.has("a.ts"))

	startWatch(t, e, root)

	require.NoError(t, os.Remove(filepath.Join(root, "a.ts")))
	waitFor(t, 3*time.Second, func() bool { return !g.has("a.ts") })

	hashes, err := e.metrics.AllFileHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestWatch_ModifyReindexes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g, WithDebounce(100*time.Millisecond))

	_, err := e.ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	startWatch(t, e, root)

	writeFile(t, root, "a.ts", tsHelper+"\nexport const extra = 1;\n")
	waitFor(t, 3*time.Second, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		ex, ok := g.extractions["a.ts"]
		if !ok {
			return false
		}
		for _, sym := range ex.Symbols {
			if sym.Name == "extra" {
				return true
			}
		}
		return false
	})
}

func TestWatch_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	e := newTestEngine(t, newFakeGraph(), WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, root)
	}()
	time.Sleep(150 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
