// Package commands wires the CLI: serve, init, migrate and user management.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ongbook-dev/ongbook/internal/buildinfo"
	"github.com/ongbook-dev/ongbook/internal/config"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "ongbook",
		Short:   "NGO double-entry bookkeeping (SYSCOHADA)",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultFileName+")")

	rootCmd.AddCommand(newServeCommand(&cfgFile))
	rootCmd.AddCommand(newInitCommand(&cfgFile))
	rootCmd.AddCommand(newMigrateCommand(&cfgFile))
	rootCmd.AddCommand(newUserCommand(&cfgFile))

	return rootCmd
}

// setup loads configuration, builds the logger and opens the database.
func setup(cfgFile string) (*config.Config, *slog.Logger, *store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newLogger(cfg.LogLevel)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, st, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
