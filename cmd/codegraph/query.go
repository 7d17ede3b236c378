package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/query"
)

var flagTemplate string

var queryCmd = &cobra.Command{
	Use:   "query [path] <input...>",
	Short: "Query the semantic graph",
	Long: `Queries the graph with natural language or raw Cypher. Recognized
phrases are translated through the template catalog; anything else runs
verbatim. Use --template to address a template directly:

  codegraph query . "who calls fetchUser"
  codegraph query . --template find-exports src/api.ts
  codegraph query . "MATCH (n:Symbol) RETURN n.name LIMIT 5"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&flagTemplate, "template", "", "run a named query template with positional arguments")
	queryCmd.AddCommand(templatesCmd)
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available query templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat == "json" {
			type templateView struct {
				Name string   `json:"name"`
				Args []string `json:"args"`
			}
			views := make([]templateView, 0, len(query.Catalog))
			for _, tmpl := range query.Catalog {
				views = append(views, templateView{Name: tmpl.Name, Args: tmpl.Args})
			}
			return outputJSON(os.Stdout, views)
		}
		printTemplates(os.Stdout, query.Catalog)
		return nil
	},
}

func runQuery(cmd *cobra.Command, args []string) error {
	// The first argument is the target directory when it names one;
	// otherwise the whole argument list is the query input.
	targetDir := "."
	if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
		targetDir = args[0]
		args = args[1:]
	}
	abs, err := resolveTargetDir([]string{targetDir})
	if err != nil {
		return err
	}

	if flagTemplate == "" && len(args) == 0 {
		return fmt.Errorf("no query input given")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, err := newEngine(ctx, abs)
	if err != nil {
		return err
	}
	defer engine.Close()

	var outcome *queryOutcomeView
	if flagTemplate != "" {
		out, err := engine.QueryTemplate(ctx, flagTemplate, args)
		if err != nil {
			return err
		}
		outcome = newOutcomeView(out)
	} else {
		out, err := engine.Query(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		outcome = newOutcomeView(out)
	}

	if flagFormat == "json" {
		return outputJSON(os.Stdout, outcome)
	}
	printQueryOutcome(os.Stdout, outcome)
	return nil
}
