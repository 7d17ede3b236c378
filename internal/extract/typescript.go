package extract

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptExtractor extracts symbols, types, imports, and relationships
// from TypeScript and JavaScript sources.
type TypeScriptExtractor struct{}

// NewTypeScriptExtractor returns a TypeScript/JavaScript extractor.
func NewTypeScriptExtractor() *TypeScriptExtractor {
	return &TypeScriptExtractor{}
}

func (t *TypeScriptExtractor) Language() string { return "typescript" }

func (t *TypeScriptExtractor) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

// grammarFor picks the tree-sitter grammar from the file extension.
func grammarFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	default:
		return typescript.GetLanguage()
	}
}

// Extract parses content into an Extraction. A fresh parser is created per
// call so concurrent extraction workers never share tree-sitter state.
func (t *TypeScriptExtractor) Extract(content []byte, path string) (*Extraction, error) {
	if !utf8.Valid(content) {
		return nil, &ParseError{Path: path, Reason: "content is not valid UTF-8"}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(path))
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Reason: "empty syntax tree"}
	}

	w := newWalker(path, content)
	w.out.Module = Module{
		Path:    path,
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Package: filepath.Dir(path),
	}
	w.walk(root, walkCtx{})
	return w.finish(), nil
}

// walkCtx carries inherited traversal state.
type walkCtx struct {
	exported bool   // inside an export_statement
	parentID string // enclosing class/enum symbol id
}

// walker accumulates extraction output during a single traversal.
type walker struct {
	path      string
	content   []byte
	out       Extraction
	seenTypes map[string]bool
}

func newWalker(path string, content []byte) *walker {
	return &walker{path: path, content: content, seenTypes: make(map[string]bool)}
}

func (w *walker) finish() *Extraction {
	out := w.out
	return &out
}

func (w *walker) walk(node *sitter.Node, ctx walkCtx) {
	switch node.Type() {
	case "export_statement":
		child := walkCtx{exported: true, parentID: ctx.parentID}
		for i := 0; i < int(node.ChildCount()); i++ {
			w.walk(node.Child(i), child)
		}
		return

	case "import_statement":
		w.addImport(node)
		return

	case "function_declaration", "generator_function_declaration":
		w.addFunction(node, KindFunction, ctx)
		return

	case "method_definition":
		w.addFunction(node, KindMethod, ctx)
		return

	case "class_declaration":
		w.addClass(node, ctx)
		return

	case "interface_declaration":
		w.addInterface(node, ctx)
		return

	case "type_alias_declaration":
		w.addNamedSymbol(node, KindType, ctx)
		return

	case "enum_declaration":
		w.addEnum(node, ctx)
		return

	case "lexical_declaration", "variable_declaration":
		w.addVariables(node, ctx)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), ctx)
	}
}

func (w *walker) text(node *sitter.Node) string {
	return node.Content(w.content)
}

func (w *walker) addSymbol(name, kind string, node *sitter.Node, ctx walkCtx, complexity int) string {
	line := int(node.StartPoint().Row) + 1
	col := int(node.StartPoint().Column)
	id := SymbolID(w.path, name, line, col)
	w.out.Symbols = append(w.out.Symbols, Symbol{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Exported:   ctx.exported,
		File:       w.path,
		Line:       line,
		Column:     col,
		Complexity: complexity,
	})
	if ctx.parentID != "" {
		w.out.Relationships = append(w.out.Relationships, Relationship{
			Kind:   EdgeDeclares,
			FromID: ctx.parentID,
			ToID:   id,
			File:   w.path,
			Line:   line,
		})
	}
	return id
}

func (w *walker) addImport(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "string" {
			continue
		}
		source := strings.Trim(w.text(child), `"'`)
		if source == "" {
			continue
		}
		w.out.Imports = append(w.out.Imports, Import{
			File:   w.path,
			Source: source,
			Line:   int(node.StartPoint().Row) + 1,
		})
	}
}

func (w *walker) addFunction(node *sitter.Node, kind string, ctx walkCtx) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	body := node.ChildByFieldName("body")
	id := w.addSymbol(w.text(nameNode), kind, node, ctx, complexityOf(body, tsDecisionNodes))
	w.addCalls(body, id)
	w.addReturnType(node, id)
}

func (w *walker) addClass(node *sitter.Node, ctx walkCtx) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	classID := w.addSymbol(w.text(nameNode), KindClass, node, ctx, 0)
	w.addHeritage(node, classID)

	if body := node.ChildByFieldName("body"); body != nil {
		member := walkCtx{parentID: classID}
		for i := 0; i < int(body.ChildCount()); i++ {
			w.walk(body.Child(i), member)
		}
	}
}

// addHeritage emits EXTENDS and IMPLEMENTS edges from a class_heritage or
// extends_type_clause node. Targets are resolved by name in the graph store
// since the base may live in another file.
func (w *walker) addHeritage(node *sitter.Node, fromID string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "class_heritage":
			w.addHeritage(child, fromID)
		case "extends_clause", "extends_type_clause":
			for _, name := range identifierNames(child, w.content) {
				w.out.Relationships = append(w.out.Relationships, Relationship{
					Kind:   EdgeExtends,
					FromID: fromID,
					ToName: name,
					File:   w.path,
					Line:   int(child.StartPoint().Row) + 1,
				})
			}
		case "implements_clause":
			for _, name := range identifierNames(child, w.content) {
				w.out.Relationships = append(w.out.Relationships, Relationship{
					Kind:   EdgeImplements,
					FromID: fromID,
					ToName: name,
					File:   w.path,
					Line:   int(child.StartPoint().Row) + 1,
				})
			}
		}
	}
}

func (w *walker) addInterface(node *sitter.Node, ctx walkCtx) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	id := w.addSymbol(w.text(nameNode), KindInterface, node, ctx, 0)
	w.addHeritage(node, id)
}

func (w *walker) addNamedSymbol(node *sitter.Node, kind string, ctx walkCtx) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	w.addSymbol(w.text(nameNode), kind, node, ctx, 0)
}

func (w *walker) addEnum(node *sitter.Node, ctx walkCtx) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	enumID := w.addSymbol(w.text(nameNode), KindEnum, node, ctx, 0)

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	member := walkCtx{parentID: enumID}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "enum_assignment":
			if n := child.ChildByFieldName("name"); n != nil {
				w.addSymbol(w.text(n), KindEnumMember, child, member, 0)
			}
		case "property_identifier":
			w.addSymbol(w.text(child), KindEnumMember, child, member, 0)
		}
	}
}

// addVariables handles const/let/var declarators. Arrow functions and
// function expressions become function symbols with call edges; annotated
// plain variables become variable symbols with HAS_TYPE edges.
func (w *walker) addVariables(node *sitter.Node, ctx walkCtx) {
	for i := 0; i < int(node.ChildCount()); i++ {
		decl := node.Child(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		value := decl.ChildByFieldName("value")

		if value != nil && (value.Type() == "arrow_function" || value.Type() == "function" || value.Type() == "function_expression") {
			body := value.ChildByFieldName("body")
			id := w.addSymbol(name, KindFunction, decl, ctx, complexityOf(body, tsDecisionNodes))
			w.addCalls(body, id)
			w.addReturnType(value, id)
			continue
		}

		id := w.addSymbol(name, KindVariable, decl, ctx, 0)
		if typeNode := decl.ChildByFieldName("type"); typeNode != nil {
			w.addTypeEdge(id, w.text(typeNode), int(typeNode.StartPoint().Row)+1)
		}
	}
}

// addCalls emits a REFERENCES edge for every call expression in body,
// attributed to the enclosing symbol.
func (w *walker) addCalls(body *sitter.Node, fromID string) {
	if body == nil {
		return
	}
	if body.Type() == "call_expression" {
		if name := calleeName(body, w.content); name != "" {
			w.out.Relationships = append(w.out.Relationships, Relationship{
				Kind:   EdgeReferences,
				FromID: fromID,
				ToName: name,
				File:   w.path,
				Line:   int(body.StartPoint().Row) + 1,
			})
		}
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		w.addCalls(body.Child(i), fromID)
	}
}

func (w *walker) addReturnType(node *sitter.Node, symbolID string) {
	rt := node.ChildByFieldName("return_type")
	if rt == nil {
		return
	}
	w.addTypeEdge(symbolID, w.text(rt), int(rt.StartPoint().Row)+1)
}

// addTypeEdge records a (deduplicated) TypeRef and a HAS_TYPE edge to it.
func (w *walker) addTypeEdge(symbolID, rawType string, line int) {
	ref, ok := normalizeType(rawType)
	if !ok {
		return
	}
	if !w.seenTypes[ref.ID] {
		w.seenTypes[ref.ID] = true
		w.out.Types = append(w.out.Types, ref)
	}
	w.out.Relationships = append(w.out.Relationships, Relationship{
		Kind:   EdgeHasType,
		FromID: symbolID,
		ToID:   ref.ID,
		File:   w.path,
		Line:   line,
	})
}

// calleeName resolves the called name from a call_expression's function node.
func calleeName(call *sitter.Node, content []byte) string {
	fn := call.ChildByFieldName("function")
	for fn != nil {
		switch fn.Type() {
		case "identifier":
			return fn.Content(content)
		case "member_expression":
			if prop := fn.ChildByFieldName("property"); prop != nil {
				return prop.Content(content)
			}
			return ""
		case "parenthesized_expression":
			fn = fn.ChildByFieldName("expression")
		case "await_expression", "non_null_expression":
			fn = fn.NamedChild(0)
		default:
			return ""
		}
	}
	return ""
}

// identifierNames collects identifier-like descendant names in source order.
func identifierNames(node *sitter.Node, content []byte) []string {
	var names []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier", "type_identifier":
			names = append(names, n.Content(content))
			return
		case "generic_type":
			// Bare base name only; type arguments are not heritage targets.
			if name := n.ChildByFieldName("name"); name != nil {
				visit(name)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return names
}

var tsPrimitives = map[string]bool{
	"string": true, "number": true, "boolean": true, "void": true,
	"null": true, "undefined": true, "bigint": true, "symbol": true,
	"any": true, "unknown": true, "never": true, "object": true,
}

// normalizeType turns a raw annotation like ": readonly Foo<T> | null" into
// a TypeRef with flags. Returns ok=false for empty annotations.
func normalizeType(raw string) (TypeRef, bool) {
	name := strings.TrimSpace(raw)
	name = strings.TrimSpace(strings.TrimPrefix(name, ":"))

	readonly := strings.HasPrefix(name, "readonly ")
	name = strings.TrimSpace(strings.TrimPrefix(name, "readonly "))
	if name == "" {
		return TypeRef{}, false
	}

	nullable := strings.Contains(name, "| null") || strings.Contains(name, "| undefined") ||
		strings.Contains(name, "null |") || strings.Contains(name, "undefined |")
	generic := strings.Contains(name, "<")

	base := name
	if idx := strings.IndexAny(base, "<|"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	primitive := tsPrimitives[base]

	return TypeRef{
		ID:        TypeID(name, primitive, generic, nullable, readonly),
		Name:      name,
		Primitive: primitive,
		Generic:   generic,
		Nullable:  nullable,
		Readonly:  readonly,
	}, true
}
