package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is one extracted credit line belonging to a Statement.
// Everything except ClientID is immutable after insert.
type Transaction struct {
	ID                 string          `gorm:"primaryKey" json:"id"`
	StatementID        string          `gorm:"not null;index" json:"statementId"`
	ClientID           *string         `gorm:"index" json:"clientId"`
	TransactionDate    time.Time       `gorm:"not null" json:"transactionDate"`
	Description        string          `gorm:"not null" json:"description"`
	ExtractedReference *string         `json:"extractedReference"`
	Amount             decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsCredit reports whether the transaction adds money to the account.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
