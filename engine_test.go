package codegraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/metrics"
)

// fakeGraph records writes in memory and can inject failures per path.
type fakeGraph struct {
	mu          sync.Mutex
	extractions map[string]*extract.Extraction
	deleted     []string
	failInsert  map[string]bool
	lastCypher  string
	lastParams  map[string]any
	queryResult *graph.Result
	onInsert    func(path string)
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		extractions: make(map[string]*extract.Extraction),
		failInsert:  make(map[string]bool),
		queryResult: &graph.Result{},
	}
}

func (f *fakeGraph) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeGraph) InsertExtraction(ctx context.Context, ex *extract.Extraction, revision string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert[ex.Module.Path] {
		return fmt.Errorf("injected write failure for %s", ex.Module.Path)
	}
	f.extractions[ex.Module.Path] = ex
	if f.onInsert != nil {
		f.onInsert(ex.Module.Path)
	}
	return nil
}

func (f *fakeGraph) DeleteFileData(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.extractions[path]; ok {
		delete(f.extractions, path)
		f.deleted = append(f.deleted, path)
	}
	return nil
}

func (f *fakeGraph) Query(ctx context.Context, cypher string, params map[string]any) (*graph.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCypher = cypher
	f.lastParams = params
	return f.queryResult, nil
}

func (f *fakeGraph) Stats(ctx context.Context) (*graph.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &graph.Stats{
		Nodes:         map[string]int64{"Module": int64(len(f.extractions))},
		Relationships: map[string]int64{},
	}
	return stats, nil
}

func (f *fakeGraph) Close(ctx context.Context) error { return nil }

func (f *fakeGraph) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.extractions[path]
	return ok
}

func newTestEngine(t *testing.T, g GraphStore, opts ...Option) *Engine {
	t.Helper()
	m, err := metrics.NewStore(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return New(g, m, opts...)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const tsHelper = `export function helper(x: number): number {
  if (x > 0) {
    return x;
  }
  return -x;
}
`

const tsAPI = `import { helper } from './helper';

export function compute(n: number): number {
  return helper(n);
}
`

func TestScanDirectory_IndexesSupportedFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/helper.ts", tsHelper)
	writeFile(t, root, "src/api.ts", tsAPI)
	writeFile(t, root, "README.md", "# notes\n")
	writeFile(t, root, "node_modules/pkg/index.ts", "export const x = 1;\n")

	g := newFakeGraph()
	e := newTestEngine(t, g)

	report, err := e.ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesProcessed)
	assert.Equal(t, 0, report.FilesSkipped)
	assert.Positive(t, report.Symbols)
	assert.True(t, g.has("src/helper.ts"))
	assert.True(t, g.has("src/api.ts"))
	assert.False(t, g.has("node_modules/pkg/index.ts"))
}

func TestScanDirectory_UnchangedFilesSkipped(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g)
	ctx := context.Background()

	first, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesProcessed)

	second, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesProcessed)
	assert.Equal(t, 1, second.FilesUnchanged)

	// Modified content is picked up again.
	writeFile(t, root, "a.ts", tsHelper+"\nexport const extra = 1;\n")
	third, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, third.FilesProcessed)
}

func TestScanDirectory_ForceReprocesses(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g, WithForce(true))
	ctx := context.Background()

	_, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	report, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Equal(t, 0, report.FilesUnchanged)
}

func TestScan_WriteFailureLeavesFingerprintForRetry(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)
	writeFile(t, root, "b.ts", tsAPI)

	g := newFakeGraph()
	g.failInsert["a.ts"] = true
	e := newTestEngine(t, g)
	ctx := context.Background()

	report, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Equal(t, 1, report.FilesSkipped)
	assert.False(t, g.has("a.ts"))
	assert.True(t, g.has("b.ts"))

	// The failed file has no fingerprint, so the next cycle retries it; the
	// healthy file stays skipped as unchanged.
	g.mu.Lock()
	g.failInsert["a.ts"] = false
	g.mu.Unlock()

	report, err = e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Equal(t, 1, report.FilesUnchanged)
	assert.True(t, g.has("a.ts"))
}

func TestScan_CancelStopsRemainingCommits(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)
	writeFile(t, root, "b.ts", tsAPI)
	writeFile(t, root, "c.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.onInsert = func(path string) {
		if path == "a.ts" {
			cancel()
		}
	}

	report, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)

	// Commits run in path order; cancelling during the first one stops the
	// batch before the later files are started. The first file's own
	// fingerprint write fails under the cancelled context, so nothing is
	// recorded as processed.
	assert.False(t, g.has("b.ts"))
	assert.False(t, g.has("c.ts"))
	assert.Equal(t, 0, report.FilesProcessed)
	assert.Equal(t, 3, report.FilesSkipped)

	// No fingerprints were written, so the next scan picks everything up.
	g.mu.Lock()
	g.onInsert = nil
	g.mu.Unlock()

	report, err = e.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 3, report.FilesProcessed)
	assert.True(t, g.has("b.ts"))
	assert.True(t, g.has("c.ts"))
}

func TestScan_UnparseableFileSkipped(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.ts"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))
	writeFile(t, root, "good.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g)

	report, err := e.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Equal(t, 1, report.FilesSkipped)
	assert.True(t, g.has("good.ts"))
	assert.False(t, g.has("bad.ts"))

	// Unparseable files carry no fingerprint and are re-attempted each scan.
	report, err = e.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesSkipped)
}

func TestRemoveFiles_PurgesBothStores(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g)
	ctx := context.Background()

	_, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	require.True(t, g.has("a.ts"))

	require.NoError(t, e.RemoveFiles(ctx, []string{"a.ts"}))
	assert.False(t, g.has("a.ts"))

	hashes, err := e.metrics.AllFileHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)

	// A rescan after removal reprocesses from scratch.
	report, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesProcessed)
}

func TestEngineQuery_TranslatedAndPassthrough(t *testing.T) {
	t.Parallel()
	g := newFakeGraph()
	g.queryResult = &graph.Result{
		Columns:  []string{"caller"},
		Rows:     []map[string]any{{"caller": "compute"}},
		RowCount: 1,
	}
	e := newTestEngine(t, g)
	ctx := context.Background()

	out, err := e.Query(ctx, "who calls fetchUser")
	require.NoError(t, err)
	assert.Equal(t, "find-callers", out.Translation.Template)
	assert.Equal(t, []string{"fetchUser"}, out.Translation.Args)
	assert.Contains(t, out.Cypher, "REFERENCES")
	assert.Equal(t, "fetchUser", g.lastParams["name"])
	assert.Equal(t, 1, out.Result.RowCount)

	raw := "MATCH (n) RETURN n LIMIT 5"
	out, err = e.Query(ctx, raw)
	require.NoError(t, err)
	assert.True(t, out.Translation.Passthrough())
	assert.Equal(t, raw, out.Cypher)
	assert.Equal(t, raw, g.lastCypher)
}

func TestEngineQueryTemplate(t *testing.T) {
	t.Parallel()
	g := newFakeGraph()
	e := newTestEngine(t, g)

	out, err := e.QueryTemplate(context.Background(), "find-exports", []string{"src/api.ts"})
	require.NoError(t, err)
	assert.Contains(t, out.Cypher, "DECLARES")
	assert.Equal(t, "src/api.ts", g.lastParams["path"])

	_, err = e.QueryTemplate(context.Background(), "find-widgets", nil)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "a.ts", tsHelper)

	g := newFakeGraph()
	e := newTestEngine(t, g)
	ctx := context.Background()

	_, err := e.ScanDirectory(ctx, root)
	require.NoError(t, err)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Graph.Nodes["Module"])
	assert.Equal(t, 1, stats.MetricsFiles)
	assert.Equal(t, 1, stats.Fingerprints)
}

func TestDiscover_ExcludePatterns(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "src/a.ts", tsHelper)
	writeFile(t, root, "gen/a.ts", tsHelper)

	e := newTestEngine(t, newFakeGraph(), WithExcludes("gen/"))
	paths, err := e.Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, paths)
}
