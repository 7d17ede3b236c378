// Package codegraph maintains a queryable semantic graph of a source tree.
// It extracts symbols, types, imports, and typed relationships with
// tree-sitter, persists structure to Neo4j and per-file metrics to SQLite,
// and keeps both in sync with the tree through an incremental,
// fingerprint-driven reconciliation loop.
//
// # Pipeline
//
// Indexing runs in three phases per cycle:
//
//  1. Discover: walk the tree, filter by extension and exclude patterns,
//     and fingerprint file contents.
//  2. Extract: parse changed files with tree-sitter into modules, symbols,
//     types, imports, and relationships. Extraction is deterministic and
//     side-effect free.
//  3. Commit: replace each file's graph data, upsert its metrics row, and
//     only then record its fingerprint. A failed write leaves the old
//     fingerprint in place so the file is retried next cycle.
//
// # Usage
//
// Create the stores, wrap them in an Engine, and scan or watch:
//
//	g, err := graph.NewStore(ctx, uri, user, password)
//	m, err := metrics.NewStore("codegraph.db")
//	e := codegraph.New(g, m, codegraph.WithRevision(commit))
//	defer e.Close()
//
//	report, err := e.ScanDirectory(ctx, "path/to/project")
//	err = e.Watch(ctx, "path/to/project")
//
// # Queries
//
// [Engine.Query] accepts either natural language ("who calls fetchUser") or
// raw Cypher; recognized phrases are translated through a fixed template
// catalog, everything else passes through verbatim. [Engine.QueryTemplate]
// addresses a template directly by name.
package codegraph
