package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deposily/deposily/internal/api/handlers"
	"github.com/deposily/deposily/internal/api/middleware"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			ctx := context.Background()
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialise services")
				return err
			}
			defer a.Close()

			router := handlers.NewRouter(
				handlers.NewClientsHandler(a.directory),
				handlers.NewStatementsHandler(a.directory, a.ingest),
				handlers.NewTransactionsHandler(a.directory),
			)

			// Apply middleware
			handler := middleware.Recovery(log)(
				middleware.Logger(log)(
					middleware.RequestID(log)(
						middleware.CORS(
							middleware.Auth(a.authenticator)(router),
						),
					),
				),
			)

			server := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      handler,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-serveErr:
				if err != nil {
					log.Error().Err(err).Msg("Failed to start server")
					return err
				}
			case <-quit:
			}

			log.Info().Msg("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Server forced to shutdown")
				return err
			}

			log.Info().Msg("Server exited")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP server port (overrides server.port)")

	return cmd
}
