package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/extraction"
	"github.com/deposily/deposily/internal/gcsuploader"
	"github.com/deposily/deposily/internal/logger"
	"gorm.io/datatypes"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	UserID       string
	Upload       Upload
	MediaType    string
	Statement    *domain.Statement
	Outcome      extraction.Outcome
	Transactions []domain.Transaction
}

// CreateStatementStep creates the statement row in processing state.
type CreateStatementStep struct {
	svc *Service
}

func (s *CreateStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	stmt := &domain.Statement{
		UserID:           state.UserID,
		Filename:         state.Upload.Filename,
		UploadDate:       s.svc.now().UTC(),
		ProcessingStatus: domain.StatusProcessing,
	}
	if err := s.svc.statements.Create(ctx, stmt); err != nil {
		return fmt.Errorf("CreateStatementStep: %w", err)
	}
	state.Statement = stmt
	return nil
}

// ArchiveStep copies the raw upload to object storage. Failures are logged
// and do not stop the pipeline.
type ArchiveStep struct {
	svc *Service
}

func (s *ArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	objectName := gcsuploader.ObjectName(s.svc.now(), state.Upload.Filename)
	uri, err := s.svc.archiver.Archive(ctx, objectName, state.MediaType, state.Upload.Data)
	if err != nil {
		log.Warn().Err(err).Str("statement_id", state.Statement.ID).Msg("Failed to archive upload")
		return nil
	}
	if uri == "" {
		return nil
	}

	if err := s.svc.statements.SetFilepath(ctx, state.Statement.ID, uri); err != nil {
		log.Warn().Err(err).Str("statement_id", state.Statement.ID).Msg("Failed to record archive location")
		return nil
	}
	state.Statement.Filepath = &uri
	return nil
}

// ExtractStep calls the extraction model within the configured timeout.
type ExtractStep struct {
	svc *Service
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	ctx, cancel := context.WithTimeout(ctx, s.svc.timeout)
	defer cancel()

	doc := extraction.Document{
		Filename: state.Upload.Filename,
		MIMEType: state.MediaType,
		Data:     state.Upload.Data,
	}

	outcome, err := s.svc.extractor.Extract(ctx, doc, s.svc.runReporter(ctx, state))
	if err != nil {
		return fmt.Errorf("ExtractStep: %w", err)
	}
	state.Outcome = outcome
	return nil
}

// RejectInvalidStep fails the statement when the model rejected the document.
type RejectInvalidStep struct {
	svc *Service
}

func (s *RejectInvalidStep) Execute(ctx context.Context, state *PipelineState) error {
	invalid, ok := state.Outcome.(extraction.InvalidStatement)
	if !ok {
		return nil
	}

	details, err := detailsJSON(map[string]interface{}{"error": invalid.Reason})
	if err != nil {
		return fmt.Errorf("RejectInvalidStep: %w", err)
	}
	if err := s.svc.statements.UpdateStatus(ctx, state.Statement.ID, domain.StatusFailed, details); err != nil {
		return fmt.Errorf("RejectInvalidStep: %w", err)
	}
	return apperrors.InvalidStatement(invalid.Reason)
}

// FilterCreditsStep keeps the transactions that add money to the account.
type FilterCreditsStep struct {
	svc *Service
}

func (s *FilterCreditsStep) Execute(ctx context.Context, state *PipelineState) error {
	valid, ok := state.Outcome.(extraction.ValidStatement)
	if !ok {
		return fmt.Errorf("FilterCreditsStep: unexpected outcome %T", state.Outcome)
	}

	txs := make([]domain.Transaction, 0, len(valid.Transactions))
	for _, et := range valid.Transactions {
		tx := domain.Transaction{
			TransactionDate:    s.svc.calendarDate(et),
			Description:        et.Description,
			ExtractedReference: et.Reference,
			Amount:             et.Amount.Round(2),
		}
		if !tx.IsCredit() {
			continue
		}
		txs = append(txs, tx)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("statement_id", state.Statement.ID).
		Int("extracted", len(valid.Transactions)).
		Int("credits", len(txs)).
		Msg("Filtered credit transactions")

	state.Transactions = txs
	return nil
}

// PersistStep inserts the credits and completes the statement atomically.
type PersistStep struct {
	svc *Service
}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	details, err := detailsJSON(map[string]interface{}{"success": true})
	if err != nil {
		return fmt.Errorf("PersistStep: %w", err)
	}
	if err := s.svc.statements.Complete(ctx, state.Statement.ID, state.Transactions, details); err != nil {
		return fmt.Errorf("PersistStep: %w", err)
	}
	state.Statement.ProcessingStatus = domain.StatusCompleted
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

func detailsJSON(v map[string]interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
