package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Query runs a read statement and returns the eager tabular result.
func (s *Store) Query(ctx context.Context, cypher string, params map[string]any) (*Result, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("graph query: %w", err)
	}

	out := &Result{Columns: res.Keys}
	for _, record := range res.Records {
		out.Rows = append(out.Rows, record.AsMap())
	}
	out.RowCount = len(out.Rows)
	return out, nil
}

// Stats counts nodes by label and relationships by type.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Nodes:         make(map[string]int64),
		Relationships: make(map[string]int64),
	}

	nodeRes, err := s.Query(ctx, `
		MATCH (n)
		RETURN labels(n)[0] AS label, count(n) AS count`, nil)
	if err != nil {
		return nil, fmt.Errorf("node stats: %w", err)
	}
	for _, row := range nodeRes.Rows {
		label, _ := row["label"].(string)
		count, _ := row["count"].(int64)
		if label != "" {
			stats.Nodes[label] = count
		}
	}

	relRes, err := s.Query(ctx, `
		MATCH ()-[r]->()
		RETURN type(r) AS kind, count(r) AS count`, nil)
	if err != nil {
		return nil, fmt.Errorf("relationship stats: %w", err)
	}
	for _, row := range relRes.Rows {
		kind, _ := row["kind"].(string)
		count, _ := row["count"].(int64)
		if kind != "" {
			stats.Relationships[kind] = count
		}
	}
	return stats, nil
}
