package codegraph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"codegraph/internal/extract"
	"codegraph/internal/fileutil"
	"codegraph/internal/metrics"
)

// ScanReport summarizes one scan over a source tree.
type ScanReport struct {
	FilesProcessed int
	FilesSkipped   int
	FilesUnchanged int
	Symbols        int
	Types          int
	Imports        int
	Relationships  int
	TopComplexity  []metrics.FileMetrics
	Duration       time.Duration
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
}

// Discover walks root and returns the slash-separated relative paths of all
// supported source files, sorted. Hidden directories, common dependency
// directories, and configured exclude patterns are skipped.
func (e *Engine) Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			if e.excludes != nil && rel != "." && e.excludes.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.registry.Supported(path) {
			return nil
		}
		if e.excludes != nil && e.excludes.MatchesPath(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// fileResult is the outcome of extracting one file, produced by a worker and
// committed serially.
type fileResult struct {
	path       string
	hash       string
	extraction *extract.Extraction
	lines      fileutil.LineStats
	err        error
}

// ScanDirectory discovers and indexes every supported file under root.
func (e *Engine) ScanDirectory(ctx context.Context, root string) (*ScanReport, error) {
	paths, err := e.Discover(root)
	if err != nil {
		return nil, err
	}
	return e.ScanPaths(ctx, root, paths)
}

// ScanPaths indexes the given root-relative paths. Unchanged files (same
// content fingerprint) are skipped unless WithForce is set. Per-file parse
// and write failures are logged and counted as skipped; the file's stored
// fingerprint is left untouched so the next cycle retries it.
func (e *Engine) ScanPaths(ctx context.Context, root string, paths []string) (*ScanReport, error) {
	start := time.Now()
	report := &ScanReport{}

	known, err := e.metrics.AllFileHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}

	// Phase 1: read and hash serially, deciding what needs extraction.
	var pending []fileResult
	for _, rel := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			e.log.Warn("read failed", "path", rel, "error", err)
			report.FilesSkipped++
			continue
		}
		hash := fileutil.HashBytes(content)
		if !e.force && known[rel] == hash {
			report.FilesUnchanged++
			continue
		}
		pending = append(pending, fileResult{
			path:  rel,
			hash:  hash,
			lines: fileutil.CountLines(content),
			err:   errNotExtracted,
		})
		// Content is re-read inside the extraction phase to keep pending
		// memory bounded on large trees.
	}

	// Phase 2: extract in parallel.
	results := e.extractAll(ctx, root, pending)

	// Phase 3: commit serially. Ordering keeps the run deterministic and the
	// stores uncontended. Cancellation is checked between files so a shutdown
	// mid-batch never starts new commits.
	for i := range results {
		if ctx.Err() != nil {
			remaining := len(results) - i
			report.FilesSkipped += remaining
			e.log.Info("scan interrupted",
				"committed", report.FilesProcessed,
				"remaining", remaining,
			)
			break
		}
		res := &results[i]
		if res.err != nil {
			e.log.Warn("extract failed", "path", res.path, "error", res.err)
			report.FilesSkipped++
			continue
		}
		if err := e.commit(ctx, res); err != nil {
			// Fingerprint deliberately not updated; the file is retried on
			// the next cycle.
			e.log.Error("store write failed", "path", res.path, "error", err)
			report.FilesSkipped++
			continue
		}
		report.FilesProcessed++
		report.Symbols += len(res.extraction.Symbols)
		report.Types += len(res.extraction.Types)
		report.Imports += len(res.extraction.Imports)
		report.Relationships += len(res.extraction.Relationships)
	}

	if top, err := e.metrics.TopComplexity(ctx, e.topN); err == nil {
		report.TopComplexity = top
	} else {
		e.log.Warn("top complexity unavailable", "error", err)
	}

	report.Duration = time.Since(start)
	e.log.Info("scan complete",
		"processed", report.FilesProcessed,
		"skipped", report.FilesSkipped,
		"unchanged", report.FilesUnchanged,
		"symbols", report.Symbols,
		"duration", report.Duration,
	)
	return report, nil
}

var errNotExtracted = fmt.Errorf("not extracted")

// extractAll runs the extraction phase over pending files with a worker
// pool. Results keep the input ordering.
func (e *Engine) extractAll(ctx context.Context, root string, pending []fileResult) []fileResult {
	workers := e.concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(pending) {
		workers = len(pending)
	}
	if workers <= 1 {
		for i := range pending {
			e.extractOne(ctx, root, &pending[i])
		}
		return pending
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				e.extractOne(ctx, root, &pending[i])
			}
		}()
	}
	for i := range pending {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return pending
}

func (e *Engine) extractOne(ctx context.Context, root string, res *fileResult) {
	if ctx.Err() != nil {
		res.err = ctx.Err()
		return
	}
	extractor, ok := e.registry.ForPath(res.path)
	if !ok {
		res.err = fmt.Errorf("no extractor for %s", res.path)
		return
	}
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(res.path)))
	if err != nil {
		res.err = err
		return
	}
	// Guard against the file changing between hashing and extraction.
	if hash := fileutil.HashBytes(content); hash != res.hash {
		res.hash = hash
		res.lines = fileutil.CountLines(content)
	}
	ex, err := extractor.Extract(content, res.path)
	if err != nil {
		res.err = err
		return
	}
	res.extraction = ex
	res.err = nil
}

// commit writes one extraction to both stores and, only after both succeed,
// records the content fingerprint.
func (e *Engine) commit(ctx context.Context, res *fileResult) error {
	if e.fileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fileTimeout)
		defer cancel()
	}

	// Replace-then-insert so removed declarations never linger.
	if err := e.graph.DeleteFileData(ctx, res.path); err != nil {
		return fmt.Errorf("delete stale graph data: %w", err)
	}
	if err := e.graph.InsertExtraction(ctx, res.extraction, e.revision); err != nil {
		return fmt.Errorf("graph write: %w", err)
	}
	if err := e.metrics.UpsertFileMetrics(ctx, buildFileMetrics(res)); err != nil {
		return fmt.Errorf("metrics write: %w", err)
	}
	if err := e.metrics.UpsertFileHash(ctx, res.path, res.hash, e.revision); err != nil {
		return fmt.Errorf("fingerprint write: %w", err)
	}
	return nil
}

func buildFileMetrics(res *fileResult) metrics.FileMetrics {
	m := metrics.FileMetrics{
		Path:         res.path,
		TotalLines:   res.lines.Total,
		CodeLines:    res.lines.Code,
		CommentLines: res.lines.Comment,
		BlankLines:   res.lines.Blank,
		ImportCount:  len(res.extraction.Imports),
		LastAnalyzed: time.Now().UTC(),
	}
	callables := 0
	for _, sym := range res.extraction.Symbols {
		if sym.Exported {
			m.ExportCount++
		}
		switch sym.Kind {
		case extract.KindClass:
			m.ClassCount++
		case extract.KindFunction, extract.KindMethod:
			m.FunctionCount++
		}
		if sym.Complexity > 0 {
			m.ComplexitySum += sym.Complexity
			callables++
		}
	}
	if callables > 0 {
		m.ComplexityAvg = float64(m.ComplexitySum) / float64(callables)
	}
	return m
}

// RemoveFiles deletes every trace of the given paths from both stores:
// graph nodes and edges, metrics rows, and fingerprints.
func (e *Engine) RemoveFiles(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := e.graph.DeleteFileData(ctx, path); err != nil {
			return fmt.Errorf("remove %s from graph: %w", path, err)
		}
		if err := e.metrics.DeleteFileMetrics(ctx, path); err != nil {
			return fmt.Errorf("remove %s metrics: %w", path, err)
		}
		if err := e.metrics.DeleteFileHash(ctx, path); err != nil {
			return fmt.Errorf("remove %s fingerprint: %w", path, err)
		}
		e.log.Info("removed file", "path", path)
	}
	return nil
}
