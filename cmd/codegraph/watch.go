package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var flagInitialScan bool

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Continuously reconcile the index with a source tree",
	Long:  "Runs an initial scan, then watches the tree for changes. File events are debounced and applied as incremental reconciliation cycles: deletions are purged, added and modified files are re-extracted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagInitialScan, "initial-scan", true, "scan the tree before watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(ctx, targetDir)
	if err != nil {
		return err
	}
	defer engine.Close()

	if flagInitialScan {
		if _, err := engine.ScanDirectory(ctx, targetDir); err != nil {
			return fmt.Errorf("initial scan: %w", err)
		}
	}

	err = engine.Watch(ctx, targetDir)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
