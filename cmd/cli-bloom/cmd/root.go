// Package cmd provides the CLI commands for cli-bloom.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odespesse/cli-bloom/internal/config"
	"github.com/odespesse/cli-bloom/internal/logging"
	"github.com/odespesse/cli-bloom/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the cli-bloom CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cli-bloom",
		Short: "Approximate full-text search over files using Bloom filters",
		Long: `cli-bloom indexes text files into per-document Bloom filters and
answers multi-keyword searches against them.

No document text is stored: each file is represented only by a small bit
array, so matches may include rare false positives (at a configurable rate)
but never miss a document that contains every keyword.

The index can be dumped to a JSON snapshot and restored later to ingest
more files or to search without re-reading the corpus.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("cli-bloom version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging installs the default logger before any command runs.
func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	} else if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
		logCfg.WriteToStderr = false
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		slog.Debug("logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
