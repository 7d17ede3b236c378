package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"codegraph"
	"codegraph/internal/query"
)

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// queryOutcomeView is the CLI-facing shape of a query outcome.
type queryOutcomeView struct {
	Template   string           `json:"template,omitempty"`
	Args       []string         `json:"args,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Cypher     string           `json:"cypher"`
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	RowCount   int              `json:"rowCount"`
}

func newOutcomeView(out *codegraph.QueryOutcome) *queryOutcomeView {
	return &queryOutcomeView{
		Template:   out.Translation.Template,
		Args:       out.Translation.Args,
		Confidence: out.Translation.Confidence,
		Cypher:     out.Cypher,
		Columns:    out.Result.Columns,
		Rows:       out.Result.Rows,
		RowCount:   out.Result.RowCount,
	}
}

// printQueryOutcome renders the result as an aligned table, one column per
// returned field.
func printQueryOutcome(w io.Writer, out *queryOutcomeView) {
	if out.Template != "" {
		fmt.Fprintf(w, "Template: %s %s\n\n", out.Template, strings.Join(out.Args, " "))
	}
	if len(out.Rows) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(out.Columns, "\t")))
	for _, row := range out.Rows {
		cells := make([]string, 0, len(out.Columns))
		for _, col := range out.Columns {
			cells = append(cells, fmt.Sprintf("%v", row[col]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d row(s)\n", out.RowCount)
}

func printScanReport(w io.Writer, report *codegraph.ScanReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Processed\t%d\n", report.FilesProcessed)
	fmt.Fprintf(tw, "Unchanged\t%d\n", report.FilesUnchanged)
	fmt.Fprintf(tw, "Skipped\t%d\n", report.FilesSkipped)
	fmt.Fprintf(tw, "Symbols\t%d\n", report.Symbols)
	fmt.Fprintf(tw, "Types\t%d\n", report.Types)
	fmt.Fprintf(tw, "Imports\t%d\n", report.Imports)
	fmt.Fprintf(tw, "Relationships\t%d\n", report.Relationships)
	tw.Flush()

	if len(report.TopComplexity) > 0 {
		fmt.Fprintln(w, "\nMost complex files:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tCOMPLEXITY\tFUNCTIONS\tLINES")
		for _, m := range report.TopComplexity {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", m.Path, m.ComplexitySum, m.FunctionCount, m.TotalLines)
		}
		tw.Flush()
	}
}

func printStats(w io.Writer, stats *codegraph.IndexStats) {
	fmt.Fprintln(w, "Nodes:")
	printCountMap(w, stats.Graph.Nodes)
	fmt.Fprintln(w, "\nRelationships:")
	printCountMap(w, stats.Graph.Relationships)
	fmt.Fprintf(w, "\nMetrics rows: %d\nFingerprints: %d\n", stats.MetricsFiles, stats.Fingerprints)
}

func printCountMap(w io.Writer, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%d\n", k, counts[k])
	}
	tw.Flush()
}

func printTemplates(w io.Writer, catalog []query.Template) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tARGS")
	for _, tmpl := range catalog {
		args := strings.Join(tmpl.Args, ", ")
		if args == "" {
			args = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", tmpl.Name, args)
	}
	tw.Flush()
}

// validFormats lists accepted values for --format.
var validFormats = []string{"table", "json"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
