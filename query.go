package codegraph

import (
	"context"
	"fmt"

	"codegraph/internal/graph"
	"codegraph/internal/query"
)

// QueryOutcome pairs a query result with how the input was interpreted.
type QueryOutcome struct {
	Translation query.Translation
	Cypher      string
	Result      *graph.Result
}

// Query interprets input as natural language first and as raw Cypher when no
// pattern matches, then executes it against the graph store.
func (e *Engine) Query(ctx context.Context, input string) (*QueryOutcome, error) {
	translation, err := query.Translate(input)
	if err != nil {
		return nil, err
	}

	var cypher string
	var params map[string]any
	if translation.Passthrough() {
		cypher = translation.Raw
		e.log.Debug("query passthrough", "cypher", cypher)
	} else {
		cypher, err = translation.Query.Render()
		if err != nil {
			return nil, err
		}
		params = translation.Query.Params()
		e.log.Debug("query translated",
			"template", translation.Template,
			"args", translation.Args,
			"confidence", translation.Confidence,
		)
	}

	result, err := e.graph.Query(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &QueryOutcome{
		Translation: translation,
		Cypher:      cypher,
		Result:      result,
	}, nil
}

// QueryTemplate executes a catalog template directly by name.
func (e *Engine) QueryTemplate(ctx context.Context, name string, args []string) (*QueryOutcome, error) {
	q, err := query.Build(name, args)
	if err != nil {
		return nil, err
	}
	cypher, err := q.Render()
	if err != nil {
		return nil, err
	}
	result, err := e.graph.Query(ctx, cypher, q.Params())
	if err != nil {
		return nil, err
	}
	return &QueryOutcome{
		Translation: query.Translation{Template: name, Args: args, Confidence: 1, Query: q},
		Cypher:      cypher,
		Result:      result,
	}, nil
}

// IndexStats reports the contents of both stores.
type IndexStats struct {
	Graph        *graph.Stats
	MetricsFiles int
	Fingerprints int
}

// Stats summarizes what the index currently holds.
func (e *Engine) Stats(ctx context.Context) (*IndexStats, error) {
	graphStats, err := e.graph.Stats(ctx)
	if err != nil {
		return nil, err
	}
	metricsRows, hashRows, err := e.metrics.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("metrics counts: %w", err)
	}
	return &IndexStats{
		Graph:        graphStats,
		MetricsFiles: metricsRows,
		Fingerprints: hashRows,
	}, nil
}
