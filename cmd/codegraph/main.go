package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codegraph"
	"codegraph/internal/graph"
	"codegraph/internal/metrics"
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codegraph",
	Short:         "Semantic code graph maintenance and querying",
	Long:          "Codegraph extracts symbols, types, and relationships from a source tree, persists them to Neo4j and SQLite, and keeps the index in sync through watch-driven reconciliation.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return loadConfig()
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .codegraph.yaml in the target directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "table", "output format: table|json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.PersistentFlags().String("neo4j-uri", "bolt://localhost:7687", "Neo4j connection URI")
	rootCmd.PersistentFlags().String("neo4j-user", "neo4j", "Neo4j user")
	rootCmd.PersistentFlags().String("neo4j-password", "", "Neo4j password")
	rootCmd.PersistentFlags().String("db", "", "metrics database path (default: .codegraph/metrics.db in the target directory)")

	viper.BindPFlag("neo4j.uri", rootCmd.PersistentFlags().Lookup("neo4j-uri"))
	viper.BindPFlag("neo4j.user", rootCmd.PersistentFlags().Lookup("neo4j-user"))
	viper.BindPFlag("neo4j.password", rootCmd.PersistentFlags().Lookup("neo4j-password"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig reads the optional config file and environment. Settings
// resolve flag > environment > file > default.
func loadConfig() error {
	viper.SetEnvPrefix("CODEGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
	} else {
		viper.SetConfigName(".codegraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		if flagConfig != "" {
			return fmt.Errorf("read config: %w", err)
		}
		// The default config file is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveTargetDir returns the absolute path of the directory to operate on.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

func resolveDBPath(targetDir string) string {
	if db := viper.GetString("db"); db != "" {
		if filepath.IsAbs(db) {
			return db
		}
		return filepath.Join(targetDir, db)
	}
	return filepath.Join(targetDir, ".codegraph", "metrics.db")
}

// newEngine builds the stores and Engine from resolved configuration.
func newEngine(ctx context.Context, targetDir string, extra ...codegraph.Option) (*codegraph.Engine, error) {
	dbPath := resolveDBPath(targetDir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	g, err := graph.NewStore(ctx,
		viper.GetString("neo4j.uri"),
		viper.GetString("neo4j.user"),
		viper.GetString("neo4j.password"),
	)
	if err != nil {
		return nil, err
	}
	if err := g.EnsureIndexes(ctx); err != nil {
		g.Close(ctx)
		return nil, err
	}

	m, err := metrics.NewStore(dbPath)
	if err != nil {
		g.Close(ctx)
		return nil, err
	}

	opts := []codegraph.Option{
		codegraph.WithLogger(newLogger()),
	}
	if patterns := viper.GetStringSlice("excludes"); len(patterns) > 0 {
		opts = append(opts, codegraph.WithExcludes(patterns...))
	}
	if n := viper.GetInt("concurrency"); n > 0 {
		opts = append(opts, codegraph.WithConcurrency(n))
	}
	if ms := viper.GetInt("debounce_ms"); ms > 0 {
		opts = append(opts, codegraph.WithDebounce(time.Duration(ms)*time.Millisecond))
	}
	if rev := viper.GetString("revision"); rev != "" {
		opts = append(opts, codegraph.WithRevision(rev))
	}
	opts = append(opts, extra...)

	return codegraph.New(g, m, opts...), nil
}
