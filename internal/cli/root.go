// Package cli provides the command-line interface for trackbank.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/trackbank/internal/catalog"
	"github.com/raphaelgruber/trackbank/internal/config"
	"github.com/raphaelgruber/trackbank/internal/db"
	"github.com/raphaelgruber/trackbank/internal/embedding"
	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/service"
)

// annotationNoStore marks commands that work on files only.
const annotationNoStore = "no-store"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string
	storeFlag  string

	// Global state, set up in PersistentPreRunE
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	collector *metrics.Collector
	store     service.Store

	// Lazy-initialized, only commands that embed need it
	embedder embedding.Embedder
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trackbank",
	Short: "Match production prompts against an audio clip bank",
	Long: `Trackbank matches the prompts of a new production against a bank of
previously generated audio clips, fills each arc up to its target running
time, and reports which prompts still need new clips.

Catalog and production history live in SurrealDB or in a local YAML file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadPath(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if storeFlag != "" {
			cfg.Store = storeFlag
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closeLog = config.SetupLogger(cfg)
		collector = metrics.NewCollector()

		if cmd.Annotations[annotationNoStore] == "true" {
			return nil
		}
		store, err = openStore(cmd.Context())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && collector != nil {
			printMetrics(os.Stderr, collector.Snapshot())
		}
		if store != nil {
			if err := store.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// openStore connects the configured catalog backend.
func openStore(ctx context.Context) (service.Store, error) {
	switch cfg.Store {
	case config.StoreFile:
		fs, err := catalog.NewFileStore(cfg.CatalogFile, collector)
		if err != nil {
			return nil, fmt.Errorf("open catalog file: %w", err)
		}
		logger.Debug("using file store", "path", fs.Path())
		return fs, nil
	case config.StoreSurreal:
		client, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger, collector)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := client.InitSchema(ctx, cfg.EmbeddingDimension); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// getEmbedder creates the configured embedder on first use.
func getEmbedder(ctx context.Context) (embedding.Embedder, error) {
	if embedder != nil {
		return embedder, nil
	}
	e, err := embedding.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	logger.Debug("embedder ready", "model", e.Model(), "dimension", e.Dimension())
	embedder = e
	return embedder, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and timing table")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default $TRACKBANK_CONFIG or config/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "catalog backend: surreal or file")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(catalogCmd)
}
