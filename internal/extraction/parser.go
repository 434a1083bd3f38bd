package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type modelResponse struct {
	IsValidStatement  *bool              `json:"isValidStatement"`
	ValidationMessage *string            `json:"validationMessage"`
	Transactions      []modelTransaction `json:"transactions"`
}

type modelTransaction struct {
	TransactionDate    string          `json:"transactionDate"`
	Description        string          `json:"description"`
	Amount             json.RawMessage `json:"amount"`
	ExtractedReference *string         `json:"extractedReference"`
}

// parseResponse validates raw model output into an Outcome. Anything that
// does not fit the response shape yields ErrMalformedResponse.
func parseResponse(raw string) (Outcome, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.DisallowUnknownFields()

	var resp modelResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedResponse)
	}
	if resp.IsValidStatement == nil {
		return nil, fmt.Errorf("%w: missing required field %q", ErrMalformedResponse, "isValidStatement")
	}

	if !*resp.IsValidStatement {
		reason := ""
		if resp.ValidationMessage != nil {
			reason = strings.TrimSpace(*resp.ValidationMessage)
		}
		if reason == "" {
			reason = defaultInvalidReason
		}
		return InvalidStatement{Reason: reason}, nil
	}

	txs := make([]Transaction, 0, len(resp.Transactions))
	for i, mt := range resp.Transactions {
		tx, err := mt.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrMalformedResponse, i, err)
		}
		txs = append(txs, tx)
	}
	return ValidStatement{Transactions: txs}, nil
}

func (mt modelTransaction) toTransaction() (Transaction, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(mt.TransactionDate))
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid date %q", mt.TransactionDate)
	}

	desc := strings.TrimSpace(mt.Description)
	if desc == "" {
		return Transaction{}, fmt.Errorf("required field %q is empty", "description")
	}

	amount, err := parseAmount(mt.Amount)
	if err != nil {
		return Transaction{}, err
	}

	var ref *string
	if mt.ExtractedReference != nil {
		if s := strings.TrimSpace(*mt.ExtractedReference); s != "" {
			ref = &s
		}
	}

	return Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   ref,
	}, nil
}

// parseAmount accepts a JSON number or a numeric string and keeps the exact
// decimal value.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Decimal{}, fmt.Errorf("missing required field %q", "amount")
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Decimal{}, fmt.Errorf("field %q: %v", "amount", err)
		}
		text = strings.TrimSpace(text)
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("field %q has non-numeric value %s", "amount", raw)
	}
	return amount, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
