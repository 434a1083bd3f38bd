package commands

import (
	"context"
	"fmt"

	"github.com/deposily/deposily/internal/auth"
	bq "github.com/deposily/deposily/internal/bigquery"
	"github.com/deposily/deposily/internal/config"
	"github.com/deposily/deposily/internal/database"
	"github.com/deposily/deposily/internal/directory"
	"github.com/deposily/deposily/internal/extraction"
	"github.com/deposily/deposily/internal/gcs"
	"github.com/deposily/deposily/internal/gcsuploader"
	infraBQ "github.com/deposily/deposily/internal/infra/bigquery"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/deposily/deposily/internal/ingest"
	"github.com/deposily/deposily/internal/logger"
	"github.com/deposily/deposily/internal/reconcile"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// app holds the wired services shared by the serve and ingest commands.
type app struct {
	db            *gorm.DB
	sessions      *sqlstore.SessionRepository
	authenticator *auth.Authenticator
	directory     *directory.Service
	ingest        *ingest.Service

	closers []func() error
}

// newApp migrates and opens the database and wires every service. The
// archive and run analytics sinks are only connected when configured.
func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key (or GEMINI_API_KEY) is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(cfg.Database.Path); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &app{db: db}
	a.closers = append(a.closers, func() error { return database.Close(db) })

	var archiver gcs.Archiver = gcs.Nop{}
	if cfg.Storage.Bucket != "" {
		gcsArchiver, err := gcsuploader.NewGCSArchiver(ctx, cfg.Storage.Bucket)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, gcsArchiver.Close)
		archiver = gcsArchiver
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Archiving uploads to GCS")
	} else {
		log.Warn().Msg("No storage bucket configured - uploads will not be archived")
	}

	var recorder bq.RunRecorder = bq.NopRecorder{}
	if cfg.BigQuery.Project != "" {
		bqRecorder, err := infraBQ.NewBigQueryRunRecorder(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, bqRecorder.Close)
		recorder = bqRecorder
		log.Info().
			Str("project", cfg.BigQuery.Project).
			Str("dataset", cfg.BigQuery.Dataset).
			Msg("Recording extraction runs to BigQuery")
	}

	extractor, err := extraction.NewGeminiExtractor(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Extraction.MaxAttempts)
	if err != nil {
		a.Close()
		return nil, err
	}

	statements := sqlstore.NewStatementRepository(db)
	transactions := sqlstore.NewTransactionRepository(db)
	clients := sqlstore.NewClientRepository(db)
	a.sessions = sqlstore.NewSessionRepository(db)

	extractLog := logger.WithFields(log, map[string]interface{}{
		"model":        extractor.Model(),
		"max_attempts": cfg.Extraction.MaxAttempts,
		"timeout":      cfg.Extraction.Timeout.String(),
	})
	extractLog.Info().Msg("Statement extraction configured")

	if cfg.Reconciliation.OwnerScoped {
		log.Info().Bool("owner_scoped", true).Msg("Reconciliation matches each client against its owner's transactions")
	} else {
		log.Warn().Bool("owner_scoped", false).Msg("Reconciliation matches transactions of every user")
	}
	engine := reconcile.NewEngine(transactions, loc, cfg.Reconciliation.OwnerScoped)

	a.authenticator = auth.NewAuthenticator(a.sessions)
	a.directory = directory.NewService(clients, statements, transactions, engine, archiver)
	a.ingest = ingest.NewService(statements, extractor, ingest.Options{
		Archiver: archiver,
		Recorder: recorder,
		Timeout:  cfg.Extraction.Timeout,
		Location: loc,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
