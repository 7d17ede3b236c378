package query

import (
	"regexp"
	"strings"
)

// Translation is the outcome of interpreting caller input. Either Template
// is set (a pattern matched and Query holds the built StructuredQuery) or
// Raw carries the input through unmodified as a caller-authored query.
type Translation struct {
	Template   string
	Args       []string
	Confidence float64
	Query      StructuredQuery
	Raw        string
}

// Passthrough reports whether the input bypassed translation.
func (t Translation) Passthrough() bool {
	return t.Raw != ""
}

// pattern is one trigger phrase for a template. Confidence is a static
// weight per pattern, not a similarity score; evaluation order breaks ties
// (earlier wins), mirroring catalog order.
type pattern struct {
	re         *regexp.Regexp
	template   string
	confidence float64
}

// Patterns match case-insensitively over whitespace-collapsed input so the
// captured arguments keep their original casing.
var patterns = []pattern{
	{regexp.MustCompile(`(?i)^who calls ([\w.$]+)`), "find-callers", 0.95},
	{regexp.MustCompile(`(?i)^(?:find |show )?callers of ([\w.$]+)`), "find-callers", 0.9},
	{regexp.MustCompile(`(?i)^what does ([\w.$]+) call\b`), "find-callees", 0.9},
	{regexp.MustCompile(`(?i)^(?:find |show )?callees of ([\w.$]+)`), "find-callees", 0.85},
	{regexp.MustCompile(`(?i)^call graph (?:of|for) ([\w.$]+)(?: (?:to |with )?depth (\d+))?`), "find-call-graph-with-depth", 0.9},
	{regexp.MustCompile(`(?i)^(?:find |show |list )?unused exports\b`), "find-unused-exports", 0.9},
	{regexp.MustCompile(`(?i)^(?:what|who) extends ([\w.$]+)`), "find-extends", 0.9},
	{regexp.MustCompile(`(?i)^(?:find |show )?subclasses of ([\w.$]+)`), "find-extends", 0.85},
	{regexp.MustCompile(`(?i)^who implements ([\w.$]+)`), "find-implementations", 0.9},
	{regexp.MustCompile(`(?i)^(?:find |show )?implementations of ([\w.$]+)`), "find-implementations", 0.85},
	{regexp.MustCompile(`(?i)^members of (?:class )?([\w.$]+)`), "find-class-members", 0.85},
	{regexp.MustCompile(`(?i)^(?:find |show |list )(?:all )?classes\b`), "find-classes", 0.8},
	{regexp.MustCompile(`(?i)^(?:what does|show) (?:file )?([\w./\\-]+) import\b`), "find-imports", 0.85},
	{regexp.MustCompile(`(?i)^imports of ([\w./\\-]+)`), "find-imports", 0.8},
	{regexp.MustCompile(`(?i)^exports (?:of|in|from) ([\w./\\-]+)`), "find-exports", 0.85},
	{regexp.MustCompile(`(?i)^dependencies of ([\w./\\-]+)`), "find-dependencies", 0.85},
	{regexp.MustCompile(`(?i)^what does ([\w./\\-]+) depend on\b`), "find-dependencies", 0.8},
	{regexp.MustCompile(`(?i)^(?:dependents of|who depends on) ([\w./\\-]+)`), "find-dependents", 0.85},
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// normalize collapses whitespace runs and trims the input. Case is handled
// by the patterns themselves so extracted arguments survive intact.
func normalize(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// Translate maps free text to a template-built StructuredQuery. The first
// matching pattern wins. Input matching no pattern is returned verbatim as
// a raw passthrough query; blank input is a SyntaxError rather than an
// empty passthrough.
func Translate(text string) (Translation, error) {
	norm := normalize(text)
	if norm == "" {
		return Translation{}, &SyntaxError{Reason: "empty query"}
	}
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		var args []string
		for _, group := range m[1:] {
			if group != "" {
				args = append(args, group)
			}
		}
		q, err := Build(p.template, args)
		if err != nil {
			return Translation{}, err
		}
		return Translation{
			Template:   p.template,
			Args:       args,
			Confidence: p.confidence,
			Query:      q,
		}, nil
	}
	return Translation{Raw: text}, nil
}
