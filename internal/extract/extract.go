// Package extract parses source files into the nodes and edges of the
// semantic graph: modules, symbols, types, imports, and typed relationships.
// Extraction is pure with respect to the stores and deterministic: identical
// input bytes produce identical output ordering and ids.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// EdgeKind names a typed relationship between two graph nodes.
type EdgeKind string

const (
	EdgeDeclares   EdgeKind = "DECLARES"
	EdgeExtends    EdgeKind = "EXTENDS"
	EdgeImplements EdgeKind = "IMPLEMENTS"
	EdgeReferences EdgeKind = "REFERENCES"
	EdgeImports    EdgeKind = "IMPORTS"
	EdgeHasType    EdgeKind = "HAS_TYPE"
)

// Symbol kinds produced by the extractors.
const (
	KindFunction   = "function"
	KindMethod     = "method"
	KindClass      = "class"
	KindInterface  = "interface"
	KindType       = "type"
	KindEnum       = "enum"
	KindEnumMember = "enum_member"
	KindVariable   = "variable"
	KindStruct     = "struct"
)

// Module describes the file-level node owning every other extracted row.
type Module struct {
	Path       string
	Name       string
	Package    string
	ModifiedAt time.Time
}

// Symbol is a declared function, class, interface, type, or enum member.
type Symbol struct {
	ID         string
	Name       string
	Kind       string
	Exported   bool
	File       string
	Line       int
	Column     int
	Complexity int // cyclomatic complexity; zero for non-callable kinds
}

// TypeRef is a referenced or declared type, shared across symbols.
type TypeRef struct {
	ID        string
	Name      string
	Primitive bool
	Generic   bool
	Nullable  bool
	Readonly  bool
}

// Import records one import statement of the extracted file.
type Import struct {
	File   string
	Source string
	Line   int
}

// Relationship is a directed, typed edge between extracted nodes. FromID is
// always a symbol id. Exactly one of ToID (a symbol or type id in the same
// file) or ToName (a symbol name resolved by the graph store, possibly in
// another file) is set.
type Relationship struct {
	Kind   EdgeKind
	FromID string
	ToID   string
	ToName string
	File   string
	Line   int
}

// Extraction is the complete output contract of one file's parse.
type Extraction struct {
	Module        Module
	Symbols       []Symbol
	Types         []TypeRef
	Imports       []Import
	Relationships []Relationship
}

// ParseError reports a file that could not be parsed (encoding issue,
// unsupported syntax). Callers treat it as a skip, never a batch abort.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Extractor parses one source file into graph rows. Implementations are pure
// with respect to the persistence layer and safe for concurrent use.
type Extractor interface {
	// Language returns the extractor's language identifier.
	Language() string
	// Extensions returns the file extensions this extractor handles.
	Extensions() []string
	// Extract parses content. Returns *ParseError when the file cannot be parsed.
	Extract(content []byte, path string) (*Extraction, error)
}

// SymbolID derives a stable symbol id from the owning file, name, and
// declaration position. Content-equal rescans therefore produce identical ids.
func SymbolID(file, name string, line, col int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%d", file, name, line, col)))
	return hex.EncodeToString(sum[:])[:32]
}

// TypeID derives a stable type id from the normalized type expression and
// its flags, so the same type is shared across symbols and files.
func TypeID(name string, primitive, generic, nullable, readonly bool) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("type:%s:%v:%v:%v:%v", name, primitive, generic, nullable, readonly)))
	return hex.EncodeToString(sum[:])[:32]
}

// Registry maps file extensions to extractors. Extraction strategy is
// selected by extension so the orchestrator never branches on language.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with all built-in extractors registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(NewTypeScriptExtractor())
	r.Register(NewGoExtractor())
	return r
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[ext] = e
	}
}

// ForPath returns the extractor handling path's extension, if any.
func (r *Registry) ForPath(path string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Supported reports whether any registered extractor handles path.
func (r *Registry) Supported(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}
