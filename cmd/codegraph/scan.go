package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codegraph"
)

var flagForce bool

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Index a source tree into the graph and metrics stores",
	Long:  "Discovers supported source files, extracts symbols and relationships, and writes them to Neo4j and the metrics database. Unchanged files are skipped by content fingerprint.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&flagForce, "force", false, "reprocess all files regardless of stored fingerprints")
}

func runScan(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []codegraph.Option
	if flagForce {
		opts = append(opts, codegraph.WithForce(true))
	}

	engine, err := newEngine(ctx, targetDir, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.ScanDirectory(ctx, targetDir)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	if flagFormat == "json" {
		return outputJSON(os.Stdout, report)
	}
	printScanReport(os.Stdout, report)
	fmt.Fprintf(os.Stderr, "Scanned %s in %s\n", targetDir, report.Duration.Round(time.Millisecond))
	return nil
}
