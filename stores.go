package codegraph

import (
	"context"

	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/metrics"
)

// GraphStore is the engine's view of the semantic graph backend. *graph.Store
// is the production implementation; tests substitute an in-memory fake.
type GraphStore interface {
	EnsureIndexes(ctx context.Context) error
	InsertExtraction(ctx context.Context, ex *extract.Extraction, revision string) error
	DeleteFileData(ctx context.Context, path string) error
	Query(ctx context.Context, cypher string, params map[string]any) (*graph.Result, error)
	Stats(ctx context.Context) (*graph.Stats, error)
	Close(ctx context.Context) error
}

// MetricsStore is the engine's view of the columnar metrics backend,
// implemented by *metrics.Store.
type MetricsStore interface {
	UpsertFileMetrics(ctx context.Context, m metrics.FileMetrics) error
	UpsertFileHash(ctx context.Context, path, hash, revision string) error
	AllFileHashes(ctx context.Context) (map[string]string, error)
	DeleteFileHash(ctx context.Context, path string) error
	DeleteFileMetrics(ctx context.Context, path string) error
	TopComplexity(ctx context.Context, n int) ([]metrics.FileMetrics, error)
	Counts(ctx context.Context) (metricsRows, hashRows int, err error)
	Close() error
}

var (
	_ GraphStore   = (*graph.Store)(nil)
	_ MetricsStore = (*metrics.Store)(nil)
)
