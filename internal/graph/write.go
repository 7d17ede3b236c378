package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"codegraph/internal/extract"
)

// UpsertModule merges the file-level Module node and stamps the revision
// that wrote it.
func (s *Store) UpsertModule(ctx context.Context, m extract.Module, revision string) error {
	err := s.run(ctx, `
		MERGE (m:Module {path: $path})
		SET m.name = $name, m.package = $package, m.revision = $revision`,
		map[string]any{
			"path":     m.Path,
			"name":     m.Name,
			"package":  m.Package,
			"revision": revision,
		},
	)
	if err != nil {
		return fmt.Errorf("upsert module %s: %w", m.Path, err)
	}
	return nil
}

func symbolRows(symbols []extract.Symbol) []map[string]any {
	batch := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		batch = append(batch, map[string]any{
			"id":         sym.ID,
			"name":       sym.Name,
			"kind":       sym.Kind,
			"exported":   sym.Exported,
			"file":       sym.File,
			"line":       sym.Line,
			"column":     sym.Column,
			"complexity": sym.Complexity,
		})
	}
	return batch
}

// InsertSymbols merges Symbol nodes by id and attaches each to its owning
// Module with a DECLARES edge.
func (s *Store) InsertSymbols(ctx context.Context, symbols []extract.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	err := s.run(ctx, `
		UNWIND $batch AS row
		MERGE (sym:Symbol {id: row.id})
		SET sym.name = row.name, sym.kind = row.kind, sym.exported = row.exported,
		    sym.file = row.file, sym.line = row.line, sym.column = row.column,
		    sym.complexity = row.complexity
		WITH sym, row
		MATCH (m:Module {path: row.file})
		MERGE (m)-[:DECLARES]->(sym)`,
		map[string]any{"batch": symbolRows(symbols)},
	)
	if err != nil {
		return fmt.Errorf("insert symbols: %w", err)
	}
	return nil
}

func typeRows(types []extract.TypeRef) []map[string]any {
	batch := make([]map[string]any, 0, len(types))
	for _, t := range types {
		batch = append(batch, map[string]any{
			"id":        t.ID,
			"name":      t.Name,
			"primitive": t.Primitive,
			"generic":   t.Generic,
			"nullable":  t.Nullable,
			"readonly":  t.Readonly,
		})
	}
	return batch
}

// InsertTypes merges Type nodes by id. Types are shared across files; the
// same normalized expression always lands on the same node.
func (s *Store) InsertTypes(ctx context.Context, types []extract.TypeRef) error {
	if len(types) == 0 {
		return nil
	}
	err := s.run(ctx, `
		UNWIND $batch AS row
		MERGE (t:Type {id: row.id})
		SET t.name = row.name, t.primitive = row.primitive, t.generic = row.generic,
		    t.nullable = row.nullable, t.readonly = row.readonly`,
		map[string]any{"batch": typeRows(types)},
	)
	if err != nil {
		return fmt.Errorf("insert types: %w", err)
	}
	return nil
}

func importRows(imports []extract.Import) []map[string]any {
	batch := make([]map[string]any, 0, len(imports))
	for _, imp := range imports {
		batch = append(batch, map[string]any{
			"file":   imp.File,
			"source": imp.Source,
			"line":   imp.Line,
		})
	}
	return batch
}

// InsertImports creates IMPORTS edges from the importing Module to the
// imported one. Sources outside the indexed tree get a bare Module node
// keyed by import path.
func (s *Store) InsertImports(ctx context.Context, imports []extract.Import) error {
	if len(imports) == 0 {
		return nil
	}
	err := s.run(ctx, `
		UNWIND $batch AS row
		MATCH (m:Module {path: row.file})
		MERGE (dep:Module {path: row.source})
		MERGE (m)-[r:IMPORTS]->(dep)
		SET r.line = row.line`,
		map[string]any{"batch": importRows(imports)},
	)
	if err != nil {
		return fmt.Errorf("insert imports: %w", err)
	}
	return nil
}

// relationshipCypher returns the statement for one edge kind. Edge kinds are
// a closed set validated by the caller, so interpolating the kind into the
// relationship pattern is safe (Cypher cannot parameterize relationship types).
func relationshipCypher(kind extract.EdgeKind, byName bool) string {
	if byName {
		// Target resolved by symbol name. Unmatched rows drop silently;
		// unresolved edges must not create placeholder nodes.
		return fmt.Sprintf(`
			UNWIND $batch AS row
			MATCH (from:Symbol {id: row.from})
			MATCH (to:Symbol {name: row.toName})
			MERGE (from)-[r:%s]->(to)
			SET r.file = row.file, r.line = row.line`, kind)
	}
	target := "Symbol"
	if kind == extract.EdgeHasType {
		target = "Type"
	}
	return fmt.Sprintf(`
		UNWIND $batch AS row
		MATCH (from:Symbol {id: row.from})
		MATCH (to:%s {id: row.to})
		MERGE (from)-[r:%s]->(to)
		SET r.file = row.file, r.line = row.line`, target, kind)
}

var validEdgeKinds = map[extract.EdgeKind]bool{
	extract.EdgeDeclares:   true,
	extract.EdgeExtends:    true,
	extract.EdgeImplements: true,
	extract.EdgeReferences: true,
	extract.EdgeHasType:    true,
}

// InsertRelationships writes typed edges grouped by kind and addressing
// mode. IMPORTS edges go through InsertImports, not here.
func (s *Store) InsertRelationships(ctx context.Context, rels []extract.Relationship) error {
	type group struct {
		kind   extract.EdgeKind
		byName bool
	}
	groups := make(map[group][]map[string]any)
	order := make([]group, 0)
	for _, rel := range rels {
		if !validEdgeKinds[rel.Kind] {
			return fmt.Errorf("insert relationships: unknown edge kind %q", rel.Kind)
		}
		g := group{kind: rel.Kind, byName: rel.ToName != ""}
		row := map[string]any{
			"from": rel.FromID,
			"file": rel.File,
			"line": rel.Line,
		}
		if g.byName {
			row["toName"] = rel.ToName
		} else {
			row["to"] = rel.ToID
		}
		if _, seen := groups[g]; !seen {
			order = append(order, g)
		}
		groups[g] = append(groups[g], row)
	}
	for _, g := range order {
		err := s.run(ctx, relationshipCypher(g.kind, g.byName), map[string]any{"batch": groups[g]})
		if err != nil {
			return fmt.Errorf("insert %s relationships: %w", g.kind, err)
		}
	}
	return nil
}

// InsertExtraction writes one file's complete extraction. Module first so
// DECLARES and IMPORTS edges have an anchor, relationships last so both
// endpoints exist.
func (s *Store) InsertExtraction(ctx context.Context, ex *extract.Extraction, revision string) error {
	if err := s.UpsertModule(ctx, ex.Module, revision); err != nil {
		return err
	}
	if err := s.InsertSymbols(ctx, ex.Symbols); err != nil {
		return err
	}
	if err := s.InsertTypes(ctx, ex.Types); err != nil {
		return err
	}
	if err := s.InsertImports(ctx, ex.Imports); err != nil {
		return err
	}
	return s.InsertRelationships(ctx, ex.Relationships)
}

// DeleteFileData removes a file's Module, every Symbol it declares, any Type
// left with no remaining HAS_TYPE edge, and external import stubs left with
// no edges. Runs as a single write transaction so a half-deleted file is
// never observable.
func (s *Store) DeleteFileData(ctx context.Context, path string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		stmts := []string{
			`MATCH (m:Module {path: $path})-[:DECLARES]->(s:Symbol) DETACH DELETE s`,
			`MATCH (t:Type) WHERE NOT ()-[:HAS_TYPE]->(t) DELETE t`,
			`MATCH (m:Module {path: $path}) DETACH DELETE m`,
			`MATCH (m:Module) WHERE m.name IS NULL AND NOT (m)--() DELETE m`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Run(ctx, stmt, map[string]any{"path": path}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("delete file data %s: %w", path, err)
	}
	return nil
}
