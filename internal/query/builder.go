// Package query builds structured graph queries and translates natural
// language requests into them. A StructuredQuery is an immutable, ordered
// sequence of typed clauses with a single Render step producing Cypher, so
// construction is testable without touching any store.
package query

import (
	"fmt"
	"maps"
	"strings"
)

type clauseKind string

const (
	clauseMatch   clauseKind = "MATCH"
	clauseWhere   clauseKind = "WHERE"
	clauseWith    clauseKind = "WITH"
	clauseReturn  clauseKind = "RETURN"
	clauseOrderBy clauseKind = "ORDER BY"
	clauseLimit   clauseKind = "LIMIT"
)

type clause struct {
	kind clauseKind
	text string
}

// StructuredQuery is an immutable builder value. Every method returns a new
// value; the zero value is an empty query.
type StructuredQuery struct {
	clauses []clause
	params  map[string]any
}

// New returns an empty StructuredQuery.
func New() StructuredQuery {
	return StructuredQuery{}
}

func (q StructuredQuery) append(kind clauseKind, text string) StructuredQuery {
	clauses := make([]clause, len(q.clauses), len(q.clauses)+1)
	copy(clauses, q.clauses)
	clauses = append(clauses, clause{kind: kind, text: text})
	return StructuredQuery{clauses: clauses, params: q.params}
}

// Match appends a MATCH clause.
func (q StructuredQuery) Match(pattern string) StructuredQuery {
	return q.append(clauseMatch, pattern)
}

// Where appends a WHERE clause.
func (q StructuredQuery) Where(condition string) StructuredQuery {
	return q.append(clauseWhere, condition)
}

// With appends a WITH clause.
func (q StructuredQuery) With(expr string) StructuredQuery {
	return q.append(clauseWith, expr)
}

// Return appends a RETURN clause.
func (q StructuredQuery) Return(expr string) StructuredQuery {
	return q.append(clauseReturn, expr)
}

// OrderBy appends an ORDER BY clause.
func (q StructuredQuery) OrderBy(expr string) StructuredQuery {
	return q.append(clauseOrderBy, expr)
}

// Limit appends a LIMIT clause.
func (q StructuredQuery) Limit(n int) StructuredQuery {
	return q.append(clauseLimit, fmt.Sprintf("%d", n))
}

// Param binds a named parameter referenced as $key in clause text.
func (q StructuredQuery) Param(key string, value any) StructuredQuery {
	params := make(map[string]any, len(q.params)+1)
	maps.Copy(params, q.params)
	params[key] = value
	return StructuredQuery{clauses: q.clauses, params: params}
}

// Params returns a copy of the bound parameters.
func (q StructuredQuery) Params() map[string]any {
	params := make(map[string]any, len(q.params))
	maps.Copy(params, q.params)
	return params
}

// Empty reports whether the query has no clauses.
func (q StructuredQuery) Empty() bool {
	return len(q.clauses) == 0
}

// Render produces the final Cypher text. A query without both a MATCH and a
// RETURN clause cannot execute and fails with a SyntaxError.
func (q StructuredQuery) Render() (string, error) {
	var hasMatch, hasReturn bool
	for _, c := range q.clauses {
		switch c.kind {
		case clauseMatch:
			hasMatch = true
		case clauseReturn:
			hasReturn = true
		}
	}
	if !hasMatch {
		return "", &SyntaxError{Reason: "structured query has no MATCH clause"}
	}
	if !hasReturn {
		return "", &SyntaxError{Reason: "structured query has no RETURN clause"}
	}

	parts := make([]string, 0, len(q.clauses))
	for _, c := range q.clauses {
		parts = append(parts, string(c.kind)+" "+c.text)
	}
	return strings.Join(parts, "\n"), nil
}
