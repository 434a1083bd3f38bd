// Package extraction turns an uploaded statement file into a validated list
// of transactions using a generative model.
package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedResponse is returned when the model output does not match the
// expected response shape.
var ErrMalformedResponse = errors.New("malformed extraction response")

// Document is the raw file handed to the model.
type Document struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Transaction is one line extracted from a statement. Date carries the
// calendar date only, at midnight UTC.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   *string
}

// Outcome is either ValidStatement or InvalidStatement.
type Outcome interface {
	isOutcome()
}

// ValidStatement is returned when the document was recognised as a bank statement.
type ValidStatement struct {
	Transactions []Transaction
}

// InvalidStatement is returned when the model rejected the document.
type InvalidStatement struct {
	Reason string
}

func (ValidStatement) isOutcome()   {}
func (InvalidStatement) isOutcome() {}

// Usage holds token counts reported by the model for one attempt.
type Usage struct {
	PromptTokens int64
	OutputTokens int64
}

// Attempt describes one call to the model.
type Attempt struct {
	Number     int
	Model      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Err        error
	Usage      *Usage
}

// AttemptFunc observes every attempt as it finishes. It may be nil.
type AttemptFunc func(Attempt)

// Extractor classifies a document and extracts its transactions.
type Extractor interface {
	Extract(ctx context.Context, doc Document, report AttemptFunc) (Outcome, error)
}
