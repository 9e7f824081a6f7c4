package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/logging"
)

var (
	version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jellyrename",
		Short: "Transactional media file renamer with a persistent undo journal",
		Long: `Jellyrename renames TV episodes, movies, and their sidecar files
according to configurable templates.

Every change goes through a two-phase commit and is recorded in a SQLite
journal, so any batch can be undone later:
  jellyrename rename /downloads/tv/
  jellyrename undo`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/jellyrename/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newBatchesCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig honors --config, falling back to the default location.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadPath(cfgFile)
	}
	return config.Load()
}

// newLogger builds the process logger from config; --verbose forces debug.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc := logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	if verbose {
		lc.Level = "debug"
	}
	return logging.New(lc)
}

// openJournal opens the undo journal at its configured location.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	path, err := cfg.JournalPath()
	if err != nil {
		return nil, fmt.Errorf("unable to resolve journal path: %w", err)
	}
	return journal.OpenPath(path)
}
