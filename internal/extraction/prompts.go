package extraction

import "google.golang.org/genai"

const defaultInvalidReason = "The document is not a valid bank statement"

const statementInstruction = "Analyze this bank statement and perform two tasks:\n" +
	"1. Validate if this is a genuine bank statement by looking for typical patterns " +
	"like transaction dates, amounts, and banking information.\n" +
	"2. If valid, extract transactions with their dates, descriptions, amounts, and any reference numbers.\n\n" +
	"Important extraction rules:\n" +
	"- Dates must be in YYYY-MM-DD format\n" +
	"- Amounts must be numeric (positive for credits, negative for debits)\n" +
	"- Only include transactions that credit the account (positive amounts)\n" +
	"- Extract any reference numbers found in transactions\n" +
	"- Ensure descriptions are clear and cleaned of any special characters\n" +
	"- If the document is not a bank statement, set \"isValidStatement\" to false " +
	"and explain why in \"validationMessage\"\n\n" +
	"Return ONLY valid raw JSON matching the response schema.\n" +
	"Do NOT wrap the response in code fences.\n"

// responseSchema constrains the model to the object parseResponse expects.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isValidStatement": {
				Type:        genai.TypeBoolean,
				Description: "Whether this is a valid bank statement",
			},
			"validationMessage": {
				Type:        genai.TypeString,
				Description: "Reason if statement is invalid",
				Nullable:    genai.Ptr(true),
			},
			"transactions": {
				Type:        genai.TypeArray,
				Description: "Transactions extracted from the statement",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"transactionDate":    {Type: genai.TypeString, Description: "YYYY-MM-DD"},
						"description":        {Type: genai.TypeString},
						"amount":             {Type: genai.TypeNumber},
						"extractedReference": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
					},
					Required: []string{"transactionDate", "description", "amount"},
				},
			},
		},
		Required: []string{"isValidStatement"},
	}
}
