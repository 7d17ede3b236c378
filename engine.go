package codegraph

import (
	"context"
	"log/slog"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"codegraph/internal/extract"
)

// Engine orchestrates the indexing pipeline: file discovery, change
// detection, extraction, and the dual write to the graph and metrics stores.
type Engine struct {
	graph    GraphStore
	metrics  MetricsStore
	registry *extract.Registry
	log      *slog.Logger

	excludes    *ignore.GitIgnore
	concurrency int
	force       bool
	revision    string
	debounce    time.Duration
	fileTimeout time.Duration
	topN        int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards everything so
// the library is silent unless a caller opts in.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithExcludes installs gitignore-style patterns; matching paths are skipped
// by discovery and the watch loop.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		if len(patterns) > 0 {
			e.excludes = ignore.CompileIgnoreLines(patterns...)
		}
	}
}

// WithConcurrency sets the extraction worker count. Values below 1 fall back
// to serial processing.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithForce disables the unchanged-file skip, reprocessing every discovered
// file regardless of its stored fingerprint.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// WithRevision tags every write with an index generation identifier, usually
// a VCS commit hash.
func WithRevision(revision string) Option {
	return func(e *Engine) {
		e.revision = revision
	}
}

// WithDebounce sets the watch loop's quiet window. Events arriving within
// the window coalesce into a single reconciliation cycle.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithFileTimeout bounds the processing time of a single file.
func WithFileTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.fileTimeout = d
		}
	}
}

// WithTopComplexity sets how many files the scan report ranks by complexity.
func WithTopComplexity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// New creates an Engine over the given stores. The stores remain owned by
// the caller; Close releases both.
func New(graphStore GraphStore, metricsStore MetricsStore, opts ...Option) *Engine {
	e := &Engine{
		graph:       graphStore,
		metrics:     metricsStore,
		registry:    extract.NewRegistry(),
		log:         slog.New(slog.DiscardHandler),
		concurrency: 4,
		debounce:    500 * time.Millisecond,
		fileTimeout: 30 * time.Second,
		topN:        10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases both stores.
func (e *Engine) Close() error {
	gErr := e.graph.Close(context.Background())
	mErr := e.metrics.Close()
	if gErr != nil {
		return gErr
	}
	return mErr
}
