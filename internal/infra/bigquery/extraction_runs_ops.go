package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	bq "github.com/deposily/deposily/internal/bigquery"
	"github.com/google/uuid"
)

const extractionRunsTable = "extraction_runs"

// maxErrorLen caps error_message so a verbose model error cannot blow up a row.
const maxErrorLen = 2000

// BigQueryRunRecorder is the concrete implementation of RunRecorder that
// streams extraction runs into BigQuery. It holds a shared client.
type BigQueryRunRecorder struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryRunRecorder creates a recorder writing to projectID.datasetID.extraction_runs.
func NewBigQueryRunRecorder(ctx context.Context, projectID, datasetID string) (*BigQueryRunRecorder, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRunRecorder: creating client: %w", err)
	}
	return &BigQueryRunRecorder{
		client:  client,
		dataset: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryRunRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// RecordRun inserts one row into the extraction_runs table.
func (r *BigQueryRunRecorder) RecordRun(ctx context.Context, run bq.ExtractionRun) error {
	row := newExtractionRunRow(run)

	inserter := r.client.Dataset(r.dataset).Table(extractionRunsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("RecordRun: inserting row: %w", err)
	}
	return nil
}

func newExtractionRunRow(run bq.ExtractionRun) *ExtractionRunRow {
	runID := run.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	row := &ExtractionRunRow{
		RunID:       runID,
		StatementID: run.StatementID,
		UserID:      run.UserID,
		Attempt:     int64(run.Attempt),
		StartedTS:   run.StartedAt,
		ModelName:   run.Model,
		Status:      string(run.Status),
	}

	if !run.FinishedAt.IsZero() {
		row.FinishedTS = bigquery.NullTimestamp{Timestamp: run.FinishedAt, Valid: true}
	}

	if run.Err != nil {
		errMsg := run.Err.Error()
		if len(errMsg) > maxErrorLen {
			errMsg = errMsg[:maxErrorLen]
		}
		row.ErrorMessage = bigquery.NullString{StringVal: errMsg, Valid: true}
	}

	if run.TokensKnown {
		row.TokensInput = bigquery.NullInt64{Int64: run.PromptTokens, Valid: true}
		row.TokensOutput = bigquery.NullInt64{Int64: run.OutputTokens, Valid: true}
	}

	if run.Status == bq.RunSucceeded {
		row.TransactionCount = bigquery.NullInt64{Int64: int64(run.TransactionCount), Valid: true}
	}

	return row
}
