package handlers

import (
	"time"

	"github.com/deposily/deposily/internal/directory"
	"github.com/deposily/deposily/internal/domain"
	"gorm.io/datatypes"
)

type clientResponse struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Name               string    `json:"name"`
	ClientReference    string    `json:"clientReference"`
	ExpectedPaymentDay *int      `json:"expectedPaymentDay"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func newClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		ID:                 c.ID,
		UserID:             c.UserID,
		Name:               c.Name,
		ClientReference:    c.ClientReference,
		ExpectedPaymentDay: c.PaymentDay(),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

type clientStatusResponse struct {
	clientResponse
	HasPaidThisMonth bool `json:"hasPaidThisMonth"`
}

type clientDetailResponse struct {
	clientResponse
	Transactions []domain.Transaction `json:"transactions"`
}

func newClientDetailResponse(c *directory.ClientWithTransactions) clientDetailResponse {
	txs := c.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return clientDetailResponse{clientResponse: newClientResponse(c.Client), Transactions: txs}
}

type transactionRef struct {
	ID string `json:"id"`
}

type statementResponse struct {
	ID                string                  `json:"id"`
	UserID            string                  `json:"userId"`
	Filename          string                  `json:"filename"`
	Filepath          *string                 `json:"filepath"`
	UploadDate        time.Time               `json:"uploadDate"`
	ProcessingStatus  domain.ProcessingStatus `json:"processingStatus"`
	ValidationDetails datatypes.JSON          `json:"validationDetails"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

func newStatementResponse(s domain.Statement) statementResponse {
	return statementResponse{
		ID:                s.ID,
		UserID:            s.UserID,
		Filename:          s.Filename,
		Filepath:          s.Filepath,
		UploadDate:        s.UploadDate,
		ProcessingStatus:  s.ProcessingStatus,
		ValidationDetails: s.ValidationDetails,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

type statementSummaryResponse struct {
	statementResponse
	Transactions     []transactionRef `json:"transactions"`
	TransactionCount int              `json:"transactionCount"`
}

func newStatementSummaryResponse(s directory.StatementSummary) statementSummaryResponse {
	refs := make([]transactionRef, 0, len(s.TransactionIDs))
	for _, id := range s.TransactionIDs {
		refs = append(refs, transactionRef{ID: id})
	}
	return statementSummaryResponse{
		statementResponse: newStatementResponse(s.Statement),
		Transactions:      refs,
		TransactionCount:  len(refs),
	}
}

type statementDetailResponse struct {
	statementResponse
	Transactions []domain.Transaction `json:"transactions"`
}

func newStatementDetailResponse(s *domain.Statement) statementDetailResponse {
	txs := s.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return statementDetailResponse{statementResponse: newStatementResponse(*s), Transactions: txs}
}

type uploadResponse struct {
	Success          bool   `json:"success"`
	StatementID      string `json:"statementId"`
	TransactionCount int    `json:"transactionCount"`
}

type messageResponse struct {
	Message string `json:"message"`
}
