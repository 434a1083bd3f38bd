// Package commands implements the deposily command line.
package commands

import (
	"github.com/deposily/deposily/internal/config"
	"github.com/deposily/deposily/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "deposily",
		Short:   "Bank statement ingestion and client payment reconciliation",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSessionCommand(),
		newIngestCommand(),
	)

	return rootCmd
}

// loadConfig reads configuration and builds the logger it selects.
func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Logger{}, err
	}
	return cfg, logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format), nil
}
