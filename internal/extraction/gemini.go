package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deposily/deposily/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.0-flash-001"

// generator is the subset of genai.Models used by GeminiExtractor.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor is the concrete implementation of Extractor that uses Gemini.
type GeminiExtractor struct {
	models      generator
	model       string
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// NewGeminiExtractor creates a Gemini client. An empty apiKey lets the SDK
// read GOOGLE_API_KEY / GEMINI_API_KEY from the environment.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, maxAttempts int) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return newGeminiExtractor(client.Models, model, maxAttempts), nil
}

func newGeminiExtractor(models generator, model string, maxAttempts int) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &GeminiExtractor{
		models:      models,
		model:       model,
		maxAttempts: maxAttempts,
		backoff:     500 * time.Millisecond,
		now:         time.Now,
	}
}

// Model returns the configured model name.
func (e *GeminiExtractor) Model() string {
	return e.model
}

// Extract sends the document to the model, retrying transport failures and
// malformed output up to the configured number of attempts. An
// InvalidStatement outcome is final.
func (e *GeminiExtractor) Extract(ctx context.Context, doc Document, report AttemptFunc) (Outcome, error) {
	log := logger.FromContext(ctx)

	var (
		lastErr error
		made    int
	)
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, e.backoff*time.Duration(attempt-1)); err != nil {
				return nil, fmt.Errorf("Extract: %w (last error: %v)", err, lastErr)
			}
		}

		made = attempt
		a := Attempt{Number: attempt, Model: e.model, StartedAt: e.now()}
		outcome, usage, err := e.extractOnce(ctx, doc)
		a.FinishedAt = e.now()
		a.Outcome = outcome
		a.Usage = usage
		a.Err = err
		if report != nil {
			report(a)
		}

		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", e.maxAttempts).
			Str("filename", doc.Filename).
			Msg("Extraction attempt failed")
	}

	return nil, fmt.Errorf("Extract: %d attempt(s) failed: %w", made, lastErr)
}

func (e *GeminiExtractor) extractOnce(ctx context.Context, doc Document) (Outcome, *Usage, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: buildParts(doc),
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, nil, fmt.Errorf("generate content: %w", err)
	}

	var usage *Usage
	if resp.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens: int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	outcome, err := parseResponse(resp.Text())
	if err != nil {
		return nil, usage, err
	}
	return outcome, usage, nil
}

// buildParts attaches PDFs as inline data. CSV files are plain text and are
// sent inline in the prompt.
func buildParts(doc Document) []*genai.Part {
	parts := []*genai.Part{{Text: statementInstruction}}
	if doc.MIMEType == "text/csv" {
		return append(parts, &genai.Part{Text: "Statement (CSV):\n" + string(doc.Data)})
	}
	return append(parts, &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: doc.MIMEType,
			Data:     doc.Data,
		},
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsMalformed reports whether err came from an unparseable model response.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
