package extract

import (
	"context"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor extracts symbols, types, imports, and relationships from Go
// sources.
type GoExtractor struct{}

// NewGoExtractor returns a Go extractor.
func NewGoExtractor() *GoExtractor {
	return &GoExtractor{}
}

func (g *GoExtractor) Language() string { return "go" }

func (g *GoExtractor) Extensions() []string { return []string{".go"} }

func (g *GoExtractor) Extract(content []byte, path string) (*Extraction, error) {
	if !utf8.Valid(content) {
		return nil, &ParseError{Path: path, Reason: "content is not valid UTF-8"}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
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
		Name:    strings.TrimSuffix(filepath.Base(path), ".go"),
		Package: packageName(root, content),
	}

	// methods keyed by receiver type name, linked to their type after the walk.
	type pendingMethod struct {
		id       string
		receiver string
		line     int
	}
	var methods []pendingMethod

	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		switch node.Type() {
		case "import_declaration":
			g.addImports(w, node)

		case "function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := w.text(nameNode)
			body := node.ChildByFieldName("body")
			ctx := walkCtx{exported: goExported(name)}
			id := w.addSymbol(name, KindFunction, node, ctx, complexityOf(body, goDecisionNodes))
			w.addGoCalls(body, id)
			g.addResultType(w, node, id)

		case "method_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := w.text(nameNode)
			body := node.ChildByFieldName("body")
			ctx := walkCtx{exported: goExported(name)}
			id := w.addSymbol(name, KindMethod, node, ctx, complexityOf(body, goDecisionNodes))
			w.addGoCalls(body, id)
			g.addResultType(w, node, id)
			if recv := receiverTypeName(node, w.content); recv != "" {
				methods = append(methods, pendingMethod{id: id, receiver: recv, line: int(node.StartPoint().Row) + 1})
			}

		case "type_declaration":
			g.addTypeDecls(w, node)
		}
	}

	// Link methods to their receiver type declared in the same file.
	byName := make(map[string]string, len(w.out.Symbols))
	for _, s := range w.out.Symbols {
		if s.Kind == KindStruct || s.Kind == KindInterface || s.Kind == KindType {
			byName[s.Name] = s.ID
		}
	}
	for _, m := range methods {
		ownerID, ok := byName[m.receiver]
		if !ok {
			continue
		}
		w.out.Relationships = append(w.out.Relationships, Relationship{
			Kind:   EdgeDeclares,
			FromID: ownerID,
			ToID:   m.id,
			File:   path,
			Line:   m.line,
		})
	}

	return w.finish(), nil
}

func (g *GoExtractor) addImports(w *walker, node *sitter.Node) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "import_spec" {
			if p := n.ChildByFieldName("path"); p != nil {
				w.out.Imports = append(w.out.Imports, Import{
					File:   w.path,
					Source: strings.Trim(w.text(p), `"`),
					Line:   int(n.StartPoint().Row) + 1,
				})
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
}

func (g *GoExtractor) addTypeDecls(w *walker, node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		spec := node.Child(i)
		if spec.Type() != "type_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		kind := KindType
		if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
			switch typeNode.Type() {
			case "struct_type":
				kind = KindStruct
			case "interface_type":
				kind = KindInterface
			}
		}
		w.addSymbol(name, kind, spec, walkCtx{exported: goExported(name)}, 0)
	}
}

// addResultType records a HAS_TYPE edge for a function's result, when present
// and simple enough to name.
func (g *GoExtractor) addResultType(w *walker, node *sitter.Node, symbolID string) {
	result := node.ChildByFieldName("result")
	if result == nil {
		return
	}
	name := strings.TrimSpace(w.text(result))
	if name == "" || strings.HasPrefix(name, "(") {
		return
	}
	primitive := goPrimitives[name]
	generic := strings.Contains(name, "[")
	nullable := strings.HasPrefix(name, "*")
	ref := TypeRef{
		ID:        TypeID(name, primitive, generic, nullable, false),
		Name:      name,
		Primitive: primitive,
		Generic:   generic,
		Nullable:  nullable,
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
		Line:   int(result.StartPoint().Row) + 1,
	})
}

// addGoCalls emits REFERENCES edges for call expressions in body.
func (w *walker) addGoCalls(body *sitter.Node, fromID string) {
	if body == nil {
		return
	}
	if body.Type() == "call_expression" {
		if name := goCalleeName(body, w.content); name != "" {
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
		w.addGoCalls(body.Child(i), fromID)
	}
}

func goCalleeName(call *sitter.Node, content []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(content)
	case "selector_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return field.Content(content)
		}
	}
	return ""
}

func receiverTypeName(node *sitter.Node, content []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var name string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if name != "" {
			return
		}
		if n.Type() == "type_identifier" {
			name = n.Content(content)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(recv)
	return name
}

func packageName(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node.Type() == "package_clause" {
			for j := 0; j < int(node.ChildCount()); j++ {
				if c := node.Child(j); c.Type() == "package_identifier" {
					return c.Content(content)
				}
			}
		}
	}
	return ""
}

func goExported(name string) bool {
	if name == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

var goPrimitives = map[string]bool{
	"string": true, "bool": true, "byte": true, "rune": true, "error": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}
