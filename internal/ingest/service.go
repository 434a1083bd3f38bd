// Package ingest accepts statement uploads, runs extraction and persists the
// resulting credit transactions.
package ingest

import (
	"context"
	"time"

	"github.com/deposily/deposily/internal/apperrors"
	bq "github.com/deposily/deposily/internal/bigquery"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/extraction"
	"github.com/deposily/deposily/internal/gcs"
	"github.com/deposily/deposily/internal/logger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	// DefaultTimeout bounds one extraction call including retries.
	DefaultTimeout = 2 * time.Minute

	failedDetails = `{"error":"processing failed"}`
	markTimeout   = 10 * time.Second
)

// StatementStore is the persistence the pipeline needs.
type StatementStore interface {
	Create(ctx context.Context, s *domain.Statement) error
	SetFilepath(ctx context.Context, id, uri string) error
	UpdateStatus(ctx context.Context, id string, next domain.ProcessingStatus, details datatypes.JSON) error
	Complete(ctx context.Context, id string, txs []domain.Transaction, details datatypes.JSON) error
}

// Result is returned for a successfully processed upload.
type Result struct {
	StatementID      string
	TransactionCount int
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Archiver gcs.Archiver
	Recorder bq.RunRecorder
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Service runs the statement ingestion pipeline.
type Service struct {
	statements StatementStore
	extractor  extraction.Extractor
	archiver   gcs.Archiver
	recorder   bq.RunRecorder
	timeout    time.Duration
	location   *time.Location
	now        func() time.Time
	pipeline   *Pipeline
}

// NewService creates an ingestion Service.
func NewService(statements StatementStore, extractor extraction.Extractor, opts Options) *Service {
	s := &Service{
		statements: statements,
		extractor:  extractor,
		archiver:   opts.Archiver,
		recorder:   opts.Recorder,
		timeout:    opts.Timeout,
		location:   opts.Location,
		now:        opts.Now,
	}
	if s.archiver == nil {
		s.archiver = gcs.Nop{}
	}
	if s.recorder == nil {
		s.recorder = bq.NopRecorder{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.pipeline = NewPipeline(
		&CreateStatementStep{svc: s},
		&ArchiveStep{svc: s},
		&ExtractStep{svc: s},
		&RejectInvalidStep{svc: s},
		&FilterCreditsStep{svc: s},
		&PersistStep{svc: s},
	)
	return s
}

// Ingest validates an upload, extracts its transactions and stores the
// credits. A statement that was created is never left in processing when an
// error is returned.
func (s *Service) Ingest(ctx context.Context, userID string, upload Upload) (*Result, error) {
	mediaType, err := ValidateUpload(upload)
	if err != nil {
		return nil, err
	}
	if upload.Filename == "" {
		upload.Filename = "statement"
	}

	state := &PipelineState{
		UserID:    userID,
		Upload:    upload,
		MediaType: mediaType,
	}

	if err := s.pipeline.Execute(ctx, state); err != nil {
		if apperrors.Is(err, apperrors.KindInvalidStatement) {
			return nil, err
		}
		s.fail(ctx, state, err)
		return nil, apperrors.Processing(err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("statement_id", state.Statement.ID).
		Int("transaction_count", len(state.Transactions)).
		Msg("Statement processed")

	return &Result{
		StatementID:      state.Statement.ID,
		TransactionCount: len(state.Transactions),
	}, nil
}

// fail marks the statement failed on a context detached from the request so
// that a cancelled or timed out request still reaches a terminal status.
func (s *Service) fail(ctx context.Context, state *PipelineState, cause error) {
	log := logger.FromContext(ctx)

	if state.Statement == nil {
		log.Error().Stack().Err(cause).Msg("Failed to create statement")
		return
	}

	log.Error().Stack().Err(cause).
		Str("statement_id", state.Statement.ID).
		Bool("malformed_response", extraction.IsMalformed(cause)).
		Msg("Statement processing failed")

	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	if err := s.statements.UpdateStatus(markCtx, state.Statement.ID, domain.StatusFailed, datatypes.JSON(failedDetails)); err != nil {
		log.Error().Err(err).
			Str("statement_id", state.Statement.ID).
			Msg("Failed to mark statement as failed")
	}
}

// runReporter records every extraction attempt in the analytics sink.
func (s *Service) runReporter(ctx context.Context, state *PipelineState) extraction.AttemptFunc {
	recordCtx := context.WithoutCancel(ctx)
	return func(a extraction.Attempt) {
		run := bq.ExtractionRun{
			RunID:       uuid.NewString(),
			StatementID: state.Statement.ID,
			UserID:      state.UserID,
			Attempt:     a.Number,
			Model:       a.Model,
			StartedAt:   a.StartedAt,
			FinishedAt:  a.FinishedAt,
			Err:         a.Err,
		}
		if a.Usage != nil {
			run.TokensKnown = true
			run.PromptTokens = a.Usage.PromptTokens
			run.OutputTokens = a.Usage.OutputTokens
		}

		switch o := a.Outcome.(type) {
		case extraction.ValidStatement:
			run.Status = bq.RunSucceeded
			run.TransactionCount = len(o.Transactions)
		case extraction.InvalidStatement:
			run.Status = bq.RunInvalid
		default:
			run.Status = bq.RunFailed
		}

		if err := s.recorder.RecordRun(recordCtx, run); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).
				Str("statement_id", state.Statement.ID).
				Msg("Failed to record extraction run")
		}
	}
}

// calendarDate anchors an extracted date at midnight in the configured
// location and stores it in UTC.
func (s *Service) calendarDate(tx extraction.Transaction) time.Time {
	y, m, d := tx.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location).UTC()
}
