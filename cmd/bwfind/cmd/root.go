// Package cmd provides the CLI commands for bwfind.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	"github.com/audio-forge-rs/find-all-bitwig/internal/config"
	"github.com/audio-forge-rs/find-all-bitwig/internal/logging"
	"github.com/audio-forge-rs/find-all-bitwig/pkg/version"
)

var (
	dbPath         string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the bwfind CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bwfind",
		Short: "Catalog and search Bitwig Studio content",
		Long: `bwfind indexes Bitwig Studio presets, samples, clips, and devices into
a local catalog and searches them with ranked relevance.

Run 'bwfind index' once, then 'bwfind search <query>' anytime.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("bwfind version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Catalog database path (overrides config)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.bwfind/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newCollectionCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		logging.SetupStderr("warn")
		return nil
	}
	cleanup, err := logging.SetupDefault("debug")
	if err != nil {
		return fmt.Errorf("setting up debug logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads configuration for the current working directory and
// applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// openStore opens the configured catalog database.
func openStore(cfg *config.Config) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}
