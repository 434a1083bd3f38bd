package bigquery

import (
	"context"
	"time"
)

// RunStatus is the outcome of one extraction attempt.
type RunStatus string

const (
	RunSucceeded RunStatus = "SUCCESS"
	RunInvalid   RunStatus = "INVALID"
	RunFailed    RunStatus = "FAILED"
)

// ExtractionRun describes one call to the extraction model for a statement.
type ExtractionRun struct {
	RunID       string
	StatementID string
	UserID      string
	Attempt     int
	Model       string

	StartedAt  time.Time
	FinishedAt time.Time

	Status RunStatus
	Err    error

	// Token counts are only meaningful when TokensKnown is set.
	TokensKnown  bool
	PromptTokens int64
	OutputTokens int64

	TransactionCount int
}

// RunRecorder provides an interface for recording extraction runs in an analytics sink.
// This interface enables mocking and testing of run recording.
type RunRecorder interface {
	// RecordRun stores a single finished extraction run.
	RecordRun(ctx context.Context, run ExtractionRun) error
}

// NopRecorder discards runs. It is used when no analytics project is configured.
type NopRecorder struct{}

func (NopRecorder) RecordRun(ctx context.Context, run ExtractionRun) error { return nil }
