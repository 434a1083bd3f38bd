package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProcessingStatus is the lifecycle state of an uploaded statement.
type ProcessingStatus string

const (
	StatusUploaded   ProcessingStatus = "uploaded"
	StatusValidating ProcessingStatus = "validating"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

var statusRank = map[ProcessingStatus]int{
	StatusUploaded:   0,
	StatusValidating: 1,
	StatusProcessing: 2,
	StatusCompleted:  3,
	StatusFailed:     3,
}

// Valid reports whether s is a known status.
func (s ProcessingStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transition is allowed out of s.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

// Predecessors returns every status that may transition into s.
func (s ProcessingStatus) Predecessors() []ProcessingStatus {
	var out []ProcessingStatus
	for _, candidate := range []ProcessingStatus{StatusUploaded, StatusValidating, StatusProcessing} {
		if candidate.CanTransitionTo(s) {
			out = append(out, candidate)
		}
	}
	return out
}

// Statement is one uploaded bank statement file and its processing record.
type Statement struct {
	ID                string           `gorm:"primaryKey" json:"id"`
	UserID            string           `gorm:"not null;index" json:"userId"`
	Filename          string           `gorm:"not null" json:"filename"`
	Filepath          *string          `json:"filepath"`
	UploadDate        time.Time        `gorm:"not null" json:"uploadDate"`
	ProcessingStatus  ProcessingStatus `gorm:"not null;default:uploaded" json:"processingStatus"`
	ValidationDetails datatypes.JSON   `json:"validationDetails"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`

	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

func (Statement) TableName() string { return "statements" }

func (s *Statement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
