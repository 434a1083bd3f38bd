package commands

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/deposily/deposily/internal/auth"
	"github.com/deposily/deposily/internal/ingest"
	"github.com/deposily/deposily/internal/logger"
	"github.com/spf13/cobra"
)

func newIngestCommand() *cobra.Command {
	var (
		email string
		file  string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process a local statement file for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}

			ctx := logger.WithContext(context.Background(), log)
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := auth.EnsureUser(ctx, a.sessions, email, "")
			if err != nil {
				return err
			}

			res, err := a.ingest.Ingest(ctx, user.ID, ingest.Upload{
				Filename:    filepath.Base(file),
				ContentType: mime.TypeByExtension(filepath.Ext(file)),
				Data:        data,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "statement %s: %d credit transaction(s)\n", res.StatementID, res.TransactionCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "owner email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&file, "file", "", "path to a PDF or CSV statement (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
