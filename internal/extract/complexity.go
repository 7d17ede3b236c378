package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Decision node types contributing to cyclomatic complexity, per language.
var tsDecisionNodes = map[string]bool{
	"if_statement":       true,
	"for_statement":      true,
	"for_in_statement":   true,
	"while_statement":    true,
	"do_statement":       true,
	"switch_case":        true,
	"catch_clause":       true,
	"ternary_expression": true,
}

var goDecisionNodes = map[string]bool{
	"if_statement":       true,
	"for_statement":      true,
	"expression_case":    true,
	"type_case":          true,
	"communication_case": true,
}

// complexityOf counts decision points in body plus one for the entry path.
// Binary expressions count only when they short-circuit (&& or ||).
func complexityOf(body *sitter.Node, decisions map[string]bool) int {
	if body == nil {
		return 1
	}
	count := 1
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		typ := n.Type()
		if decisions[typ] {
			count++
		} else if typ == "binary_expression" {
			if op := n.ChildByFieldName("operator"); op != nil {
				if s := op.Type(); s == "&&" || s == "||" || strings.HasPrefix(s, "??") {
					count++
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(body)
	return count
}
