// Package graph is the Neo4j persistence layer for the semantic graph.
// Writes are batched UNWIND+MERGE statements keyed by stable ids, so
// re-running an extraction is idempotent. Cross-file relationship targets
// are resolved by name at write time; edges whose target does not exist in
// the graph are dropped rather than materialized as placeholder nodes.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ConnectionError reports a failure to create or verify the Neo4j driver.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("graph store %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Result is the tabular outcome of a read query.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int
}

// Stats summarizes graph contents by node label and relationship type.
type Stats struct {
	Nodes         map[string]int64
	Relationships map[string]int64
}

// Store is the Neo4j data access layer.
type Store struct {
	driver neo4j.DriverWithContext
	uri    string
}

// NewStore connects to Neo4j at uri and verifies connectivity.
func NewStore(ctx context.Context, uri, user, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, &ConnectionError{URI: uri, Err: fmt.Errorf("create driver: %w", err)}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, &ConnectionError{URI: uri, Err: fmt.Errorf("verify connectivity: %w", err)}
	}
	return &Store{driver: driver, uri: uri}, nil
}

// Close releases the underlying driver resources.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// EnsureIndexes creates the lookup indexes and uniqueness constraints the
// write and query paths rely on. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	stmts := []string{
		"CREATE CONSTRAINT module_path IF NOT EXISTS FOR (m:Module) REQUIRE m.path IS UNIQUE",
		"CREATE CONSTRAINT symbol_id IF NOT EXISTS FOR (s:Symbol) REQUIRE s.id IS UNIQUE",
		"CREATE CONSTRAINT type_id IF NOT EXISTS FOR (t:Type) REQUIRE t.id IS UNIQUE",
		"CREATE INDEX symbol_name IF NOT EXISTS FOR (s:Symbol) ON (s.name)",
		"CREATE INDEX symbol_kind IF NOT EXISTS FOR (s:Symbol) ON (s.kind)",
	}
	for _, stmt := range stmts {
		if err := s.run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}
