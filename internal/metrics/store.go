// Package metrics is the SQLite persistence layer for per-file statistics
// and content fingerprints. The graph answers structural questions; this
// store answers "how big, how complex, how fresh" without touching Neo4j.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ConnectionError reports a failure to open or reach the metrics database.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("metrics store %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FileMetrics is one row of per-file statistics.
type FileMetrics struct {
	Path          string
	TotalLines    int
	CodeLines     int
	CommentLines  int
	BlankLines    int
	ComplexitySum int
	ComplexityAvg float64
	ImportCount   int
	ExportCount   int
	ClassCount    int
	FunctionCount int
	LastAnalyzed  time.Time
}

// FileHash is one fingerprint row. Revision tags the index generation that
// last wrote the file.
type FileHash struct {
	Path         string
	Hash         string
	Revision     string
	LastAnalyzed time.Time
}

// Store is the SQLite data access layer for metrics and fingerprints.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled and
// applies the schema.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, &ConnectionError{Path: dbPath, Err: fmt.Errorf("open database: %w", err)}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &ConnectionError{Path: dbPath, Err: fmt.Errorf("ping database: %w", err)}
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, &ConnectionError{Path: dbPath, Err: fmt.Errorf("migrate: %w", err)}
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS file_metrics (
  path            TEXT PRIMARY KEY,
  total_lines     INTEGER NOT NULL DEFAULT 0,
  code_lines      INTEGER NOT NULL DEFAULT 0,
  comment_lines   INTEGER NOT NULL DEFAULT 0,
  blank_lines     INTEGER NOT NULL DEFAULT 0,
  complexity_sum  INTEGER NOT NULL DEFAULT 0,
  complexity_avg  REAL NOT NULL DEFAULT 0,
  import_count    INTEGER NOT NULL DEFAULT 0,
  export_count    INTEGER NOT NULL DEFAULT 0,
  class_count     INTEGER NOT NULL DEFAULT 0,
  function_count  INTEGER NOT NULL DEFAULT 0,
  last_analyzed   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS file_hashes (
  path            TEXT PRIMARY KEY,
  hash            TEXT NOT NULL,
  revision        TEXT NOT NULL DEFAULT '',
  last_analyzed   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_file_metrics_complexity ON file_metrics(complexity_sum);
CREATE INDEX IF NOT EXISTS idx_file_hashes_revision ON file_hashes(revision);
`

// UpsertFileMetrics inserts or replaces the metrics row for m.Path.
func (s *Store) UpsertFileMetrics(ctx context.Context, m FileMetrics) error {
	if m.LastAnalyzed.IsZero() {
		m.LastAnalyzed = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_metrics (
			path, total_lines, code_lines, comment_lines, blank_lines,
			complexity_sum, complexity_avg, import_count, export_count,
			class_count, function_count, last_analyzed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			total_lines = excluded.total_lines,
			code_lines = excluded.code_lines,
			comment_lines = excluded.comment_lines,
			blank_lines = excluded.blank_lines,
			complexity_sum = excluded.complexity_sum,
			complexity_avg = excluded.complexity_avg,
			import_count = excluded.import_count,
			export_count = excluded.export_count,
			class_count = excluded.class_count,
			function_count = excluded.function_count,
			last_analyzed = excluded.last_analyzed`,
		m.Path, m.TotalLines, m.CodeLines, m.CommentLines, m.BlankLines,
		m.ComplexitySum, m.ComplexityAvg, m.ImportCount, m.ExportCount,
		m.ClassCount, m.FunctionCount, m.LastAnalyzed,
	)
	if err != nil {
		return fmt.Errorf("upsert file metrics %s: %w", m.Path, err)
	}
	return nil
}

// FileMetricsByPath returns the metrics row for path, or nil if none exists.
func (s *Store) FileMetricsByPath(ctx context.Context, path string) (*FileMetrics, error) {
	var m FileMetrics
	err := s.db.QueryRowContext(ctx, `
		SELECT path, total_lines, code_lines, comment_lines, blank_lines,
		       complexity_sum, complexity_avg, import_count, export_count,
		       class_count, function_count, last_analyzed
		FROM file_metrics WHERE path = ?`, path).Scan(
		&m.Path, &m.TotalLines, &m.CodeLines, &m.CommentLines, &m.BlankLines,
		&m.ComplexitySum, &m.ComplexityAvg, &m.ImportCount, &m.ExportCount,
		&m.ClassCount, &m.FunctionCount, &m.LastAnalyzed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query file metrics %s: %w", path, err)
	}
	return &m, nil
}

// TopComplexity returns up to n paths ordered by complexity_sum descending.
func (s *Store) TopComplexity(ctx context.Context, n int) ([]FileMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, total_lines, code_lines, comment_lines, blank_lines,
		       complexity_sum, complexity_avg, import_count, export_count,
		       class_count, function_count, last_analyzed
		FROM file_metrics
		ORDER BY complexity_sum DESC, path ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query top complexity: %w", err)
	}
	defer rows.Close()

	var out []FileMetrics
	for rows.Next() {
		var m FileMetrics
		if err := rows.Scan(
			&m.Path, &m.TotalLines, &m.CodeLines, &m.CommentLines, &m.BlankLines,
			&m.ComplexitySum, &m.ComplexityAvg, &m.ImportCount, &m.ExportCount,
			&m.ClassCount, &m.FunctionCount, &m.LastAnalyzed,
		); err != nil {
			return nil, fmt.Errorf("scan top complexity row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertFileHash records the content fingerprint of one file.
func (s *Store) UpsertFileHash(ctx context.Context, path, hash, revision string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_hashes (path, hash, revision, last_analyzed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			revision = excluded.revision,
			last_analyzed = excluded.last_analyzed`,
		path, hash, revision, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert file hash %s: %w", path, err)
	}
	return nil
}

// UpsertFileHashes writes a batch of fingerprints in one transaction.
func (s *Store) UpsertFileHashes(ctx context.Context, hashes map[string]string, revision string) error {
	if len(hashes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO file_hashes (path, hash, revision, last_analyzed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			revision = excluded.revision,
			last_analyzed = excluded.last_analyzed`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for path, hash := range hashes {
		if _, err := stmt.ExecContext(ctx, path, hash, revision, now); err != nil {
			return fmt.Errorf("upsert file hash %s: %w", path, err)
		}
	}
	return tx.Commit()
}

// AllFileHashes returns the full fingerprint map, path to hash.
func (s *Store) AllFileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, hash FROM file_hashes")
	if err != nil {
		return nil, fmt.Errorf("query file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scan file hash row: %w", err)
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// DeleteFileHashes removes the fingerprint rows for paths in one
// transaction.
func (s *Store) DeleteFileHashes(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM file_hashes WHERE path = ?")
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, path := range paths {
		if _, err := stmt.ExecContext(ctx, path); err != nil {
			return fmt.Errorf("delete file hash %s: %w", path, err)
		}
	}
	return tx.Commit()
}

// DeleteFileHash removes the fingerprint row for path. Missing rows are not
// an error.
func (s *Store) DeleteFileHash(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM file_hashes WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file hash %s: %w", path, err)
	}
	return nil
}

// DeleteFileMetrics removes the metrics row for path. Missing rows are not
// an error.
func (s *Store) DeleteFileMetrics(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM file_metrics WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file metrics %s: %w", path, err)
	}
	return nil
}

// clearableTables is the allowlist for ClearTable; table names never come
// from user input but the guard keeps the API honest.
var clearableTables = map[string]bool{
	"file_metrics": true,
	"file_hashes":  true,
}

// ClearTable empties one of the store's tables, used by full reindexes.
func (s *Store) ClearTable(ctx context.Context, table string) error {
	if !clearableTables[table] {
		return fmt.Errorf("clear table: unknown table %q", table)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear table %s: %w", table, err)
	}
	return nil
}

// Counts returns the row counts of both tables, for status reporting.
func (s *Store) Counts(ctx context.Context) (metricsRows, hashRows int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_metrics").Scan(&metricsRows); err != nil {
		return 0, 0, fmt.Errorf("count file_metrics: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_hashes").Scan(&hashRows); err != nil {
		return 0, 0, fmt.Errorf("count file_hashes: %w", err)
	}
	return metricsRows, hashRows, nil
}
