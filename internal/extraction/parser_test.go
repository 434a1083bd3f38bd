package extraction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_Valid(t *testing.T) {
	raw := `{
		"isValidStatement": true,
		"validationMessage": "",
		"transactions": [
			{"transactionDate": "2024-03-15", "description": " SALARY ", "amount": 1000.10, "extractedReference": "INV-1"},
			{"transactionDate": "2024-03-16", "description": "FEE", "amount": "-50", "extractedReference": "  "}
		]
	}`

	outcome, err := parseResponse(raw)
	require.NoError(t, err)

	valid, ok := outcome.(ValidStatement)
	require.True(t, ok, "got %T", outcome)
	require.Len(t, valid.Transactions, 2)

	first := valid.Transactions[0]
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "SALARY", first.Description)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("1000.10")))
	require.NotNil(t, first.Reference)
	assert.Equal(t, "INV-1", *first.Reference)

	second := valid.Transactions[1]
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(-50)))
	assert.Nil(t, second.Reference)
}

func TestParseResponse_Invalid(t *testing.T) {
	outcome, err := parseResponse(`{"isValidStatement": false, "validationMessage": "no transaction table found"}`)
	require.NoError(t, err)
	assert.Equal(t, InvalidStatement{Reason: "no transaction table found"}, outcome)

	outcome, err = parseResponse(`{"isValidStatement": false, "validationMessage": null}`)
	require.NoError(t, err)
	assert.Equal(t, InvalidStatement{Reason: defaultInvalidReason}, outcome)
}

func TestParseResponse_ValidWithoutTransactions(t *testing.T) {
	outcome, err := parseResponse(`{"isValidStatement": true}`)
	require.NoError(t, err)
	valid, ok := outcome.(ValidStatement)
	require.True(t, ok)
	assert.Empty(t, valid.Transactions)
}

func TestParseResponse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "I could not read this file"},
		{"array", `[{"transactionDate": "2024-03-15"}]`},
		{"missing flag", `{"transactions": []}`},
		{"unknown field", `{"isValidStatement": true, "confidence": 0.9}`},
		{"bad date", `{"isValidStatement": true, "transactions": [{"transactionDate": "15/03/2024", "description": "x", "amount": 1}]}`},
		{"empty description", `{"isValidStatement": true, "transactions": [{"transactionDate": "2024-03-15", "description": " ", "amount": 1}]}`},
		{"missing amount", `{"isValidStatement": true, "transactions": [{"transactionDate": "2024-03-15", "description": "x"}]}`},
		{"null amount", `{"isValidStatement": true, "transactions": [{"transactionDate": "2024-03-15", "description": "x", "amount": null}]}`},
		{"text amount", `{"isValidStatement": true, "transactions": [{"transactionDate": "2024-03-15", "description": "x", "amount": "lots"}]}`},
		{"bool amount", `{"isValidStatement": true, "transactions": [{"transactionDate": "2024-03-15", "description": "x", "amount": true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.True(t, IsMalformed(err))
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"chatter", "Here you go: {\"a\":1} hope that helps", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}
