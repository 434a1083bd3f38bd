package commands

import (
	"fmt"
	"time"

	"github.com/deposily/deposily/internal/auth"
	"github.com/deposily/deposily/internal/database"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/spf13/cobra"
)

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage API sessions",
	}
	cmd.AddCommand(newSessionIssueCommand(), newSessionPruneCommand())
	return cmd
}

func newSessionIssueCommand() *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Create a user if needed and print a new session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if err := database.Migrate(cfg.Database.Path); err != nil {
				return err
			}
			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close(db)

			s, err := auth.Issue(cmd.Context(), sqlstore.NewSessionRepository(db), email, name, ttl, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s <%s>\n", s.User.Name, s.User.Email)
			fmt.Fprintf(out, "expires: %s\n", s.ExpiresAt.Format(time.RFC3339))
			fmt.Fprintf(out, "token:   %s\n", s.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&name, "name", "", "display name for a new user")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultSessionTTL, "session lifetime")

	return cmd
}

func newSessionPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close(db)

			n, err := sqlstore.NewSessionRepository(db).DeleteExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", n).Msg("Expired sessions pruned")
			return nil
		},
	}
}
