package commands

import (
	"context"
	"fmt"

	"github.com/deposily/deposily/internal/database"
	infraBQ "github.com/deposily/deposily/internal/infra/bigquery"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := loadConfig()
				if err != nil {
					return err
				}
				if err := database.Migrate(cfg.Database.Path); err != nil {
					return err
				}
				log.Info().Str("path", cfg.Database.Path).Msg("Database is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := loadConfig()
				if err != nil {
					return err
				}
				if err := database.MigrateDown(cfg.Database.Path); err != nil {
					return err
				}
				log.Info().Str("path", cfg.Database.Path).Msg("All migrations rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				version, dirty, err := database.Version(cfg.Database.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
				return nil
			},
		},
		newMigrateBigQueryCommand(),
	)

	return cmd
}

func newMigrateBigQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bigquery",
		Short: "Create the extraction run analytics dataset and table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.BigQuery.Project == "" {
				return fmt.Errorf("bigquery.project is required")
			}

			ctx := context.Background()
			recorder, err := infraBQ.NewBigQueryRunRecorder(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
			if err != nil {
				return err
			}
			defer recorder.Close()

			created, err := recorder.EnsureSchema(ctx)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				log.Info().Msg("No new BigQuery objects to create")
				return nil
			}
			for _, name := range created {
				log.Info().Str("object", name).Msg("Created")
			}
			return nil
		},
	}
}
