package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentDays are the only accepted expected-payment days of month.
var PaymentDays = []int{1, 15, 25, 30}

// ValidPaymentDay reports whether day is one of PaymentDays.
func ValidPaymentDay(day int) bool {
	for _, d := range PaymentDays {
		if d == day {
			return true
		}
	}
	return false
}

// Client is a payer tracked by a user and identified by ClientReference.
type Client struct {
	ID                 string              `gorm:"primaryKey"`
	UserID             string              `gorm:"not null;index"`
	Name               string              `gorm:"not null"`
	ClientReference    string              `gorm:"not null"`
	ExpectedPaymentDay decimal.NullDecimal `gorm:"type:numeric(2,0)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Client) TableName() string { return "clients" }

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// PaymentDay returns the expected payment day as an int, or nil when unset.
func (c Client) PaymentDay() *int {
	if !c.ExpectedPaymentDay.Valid {
		return nil
	}
	day := int(c.ExpectedPaymentDay.Decimal.IntPart())
	return &day
}

// SetPaymentDay stores day, clearing the value when day is nil.
func (c *Client) SetPaymentDay(day *int) {
	if day == nil {
		c.ExpectedPaymentDay = decimal.NullDecimal{}
		return
	}
	c.ExpectedPaymentDay = decimal.NewNullDecimal(decimal.NewFromInt(int64(*day)))
}
