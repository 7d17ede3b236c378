package query

import (
	"fmt"
	"strconv"
)

// Template maps positional string arguments to a StructuredQuery.
type Template struct {
	Name string
	// Args names the required positional arguments, in order.
	Args  []string
	Build func(args []string) (StructuredQuery, error)
}

// Catalog is the fixed, ordered list of query templates. Order matters: it
// breaks confidence ties in natural-language matching.
var Catalog = []Template{
	{
		Name: "find-callers",
		Args: []string{"symbol"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(caller:Symbol)-[:REFERENCES]->(callee:Symbol {name: $name})").
				Return("caller.name AS caller, caller.file AS file, caller.line AS line").
				OrderBy("file, line").
				Param("name", args[0]), nil
		},
	},
	{
		Name: "find-callees",
		Args: []string{"symbol"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(caller:Symbol {name: $name})-[:REFERENCES]->(callee:Symbol)").
				Return("callee.name AS callee, callee.file AS file, callee.line AS line").
				OrderBy("file, line").
				Param("name", args[0]), nil
		},
	},
	{
		Name: "find-exports",
		Args: []string{"path"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(m:Module {path: $path})-[:DECLARES]->(s:Symbol)").
				Where("s.exported").
				Return("s.name AS name, s.kind AS kind, s.line AS line").
				OrderBy("line").
				Param("path", args[0]), nil
		},
	},
	{
		Name: "find-imports",
		Args: []string{"path"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(m:Module {path: $path})-[:IMPORTS]->(dep:Module)").
				Return("dep.path AS source").
				OrderBy("source").
				Param("path", args[0]), nil
		},
	},
	{
		Name: "find-dependencies",
		Args: []string{"path"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(m:Module {path: $path})-[:IMPORTS*1..3]->(dep:Module)").
				Return("DISTINCT dep.path AS dependency").
				OrderBy("dependency").
				Param("path", args[0]), nil
		},
	},
	{
		Name: "find-dependents",
		Args: []string{"path"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(dep:Module)-[:IMPORTS]->(m:Module {path: $path})").
				Return("dep.path AS dependent").
				OrderBy("dependent").
				Param("path", args[0]), nil
		},
	},
	{
		Name: "find-classes",
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(s:Symbol {kind: 'class'})").
				Return("s.name AS name, s.file AS file, s.line AS line").
				OrderBy("file, line"), nil
		},
	},
	{
		Name: "find-class-members",
		Args: []string{"class"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(c:Symbol {name: $name, kind: 'class'})-[:DECLARES]->(member:Symbol)").
				Return("member.name AS name, member.kind AS kind, member.line AS line").
				OrderBy("line").
				Param("name", args[0]), nil
		},
	},
	{
		Name: "find-extends",
		Args: []string{"symbol"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(sub:Symbol)-[:EXTENDS]->(base:Symbol {name: $name})").
				Return("sub.name AS name, sub.file AS file, sub.line AS line").
				OrderBy("file, line").
				Param("name", args[0]), nil
		},
	},
	{
		Name: "find-implementations",
		Args: []string{"interface"},
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(impl:Symbol)-[:IMPLEMENTS]->(iface:Symbol {name: $name})").
				Return("impl.name AS name, impl.file AS file, impl.line AS line").
				OrderBy("file, line").
				Param("name", args[0]), nil
		},
	},
	{
		Name: "find-call-graph-with-depth",
		Args: []string{"symbol"},
		Build: func(args []string) (StructuredQuery, error) {
			depth := 3
			if len(args) > 1 && args[1] != "" {
				d, err := strconv.Atoi(args[1])
				if err != nil || d < 1 || d > 10 {
					return StructuredQuery{}, &SyntaxError{
						Reason: fmt.Sprintf("call graph depth must be an integer in [1,10], got %q", args[1]),
					}
				}
				depth = d
			}
			// Variable-length bounds cannot be parameterized in Cypher.
			return New().
				Match(fmt.Sprintf("p = (root:Symbol {name: $name})-[:REFERENCES*1..%d]->(callee:Symbol)", depth)).
				Return("root.name AS root, callee.name AS callee, callee.file AS file, length(p) AS depth").
				OrderBy("depth, callee").
				Param("name", args[0]), nil
		},
	},
	{
		Name: "find-unused-exports",
		Build: func(args []string) (StructuredQuery, error) {
			return New().
				Match("(m:Module)-[:DECLARES]->(s:Symbol)").
				Where("s.exported AND NOT (:Symbol)-[:REFERENCES]->(s)").
				Return("s.name AS name, s.kind AS kind, s.file AS file, s.line AS line").
				OrderBy("file, line"), nil
		},
	},
}

// templateByName indexes the catalog.
var templateByName = func() map[string]*Template {
	m := make(map[string]*Template, len(Catalog))
	for i := range Catalog {
		m[Catalog[i].Name] = &Catalog[i]
	}
	return m
}()

// Build resolves a template by name and applies positional arguments.
// Unknown names fail with InvalidTemplateError; short argument lists fail
// with MissingArgumentError naming the first absent argument.
func Build(name string, args []string) (StructuredQuery, error) {
	tmpl, ok := templateByName[name]
	if !ok {
		return StructuredQuery{}, &InvalidTemplateError{Template: name}
	}
	for i, argName := range tmpl.Args {
		if i >= len(args) || args[i] == "" {
			return StructuredQuery{}, &MissingArgumentError{Template: name, Argument: argName}
		}
	}
	return tmpl.Build(args)
}
