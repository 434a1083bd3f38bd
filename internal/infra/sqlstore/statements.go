package sqlstore

import (
	"context"
	"fmt"

	"github.com/deposily/deposily/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatementRepository persists statements and the transactions extracted from them.
type StatementRepository struct {
	db *gorm.DB
}

// NewStatementRepository creates a StatementRepository on db.
func NewStatementRepository(db *gorm.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Create inserts a new statement.
func (r *StatementRepository) Create(ctx context.Context, s *domain.Statement) error {
	if !s.ProcessingStatus.Valid() {
		return fmt.Errorf("CreateStatement: invalid status %q", s.ProcessingStatus)
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error; err != nil {
		return fmt.Errorf("CreateStatement: %w", translate(err))
	}
	return nil
}

// Get loads a statement with its transactions.
func (r *StatementRepository) Get(ctx context.Context, id string) (*domain.Statement, error) {
	var s domain.Statement
	err := r.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("transaction_date ASC, created_at ASC")
		}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("GetStatement: %w", translate(err))
	}
	return &s, nil
}

// ListByUser returns the user's statements newest upload first. Only the ids
// of each statement's transactions are loaded.
func (r *StatementRepository) ListByUser(ctx context.Context, userID string) ([]domain.Statement, error) {
	var out []domain.Statement
	err := r.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "statement_id").Order("transaction_date ASC, created_at ASC")
		}).
		Where("user_id = ?", userID).
		Order("upload_date DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("ListStatements: %w", err)
	}
	return out, nil
}

// SetFilepath records where the raw upload was archived.
func (r *StatementRepository) SetFilepath(ctx context.Context, id, uri string) error {
	res := r.db.WithContext(ctx).Model(&domain.Statement{}).
		Where("id = ?", id).
		Update("filepath", uri)
	if res.Error != nil {
		return fmt.Errorf("SetFilepath: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("SetFilepath: %w", ErrNotFound)
	}
	return nil
}

// UpdateStatus moves a statement to next. The update only applies when the
// current status is one of next's predecessors, so status never goes backwards.
func (r *StatementRepository) UpdateStatus(ctx context.Context, id string, next domain.ProcessingStatus, details datatypes.JSON) error {
	if err := updateStatus(r.db.WithContext(ctx), id, next, details); err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return nil
}

// Complete inserts txs for the statement and marks it completed in a single
// database transaction.
func (r *StatementRepository) Complete(ctx context.Context, id string, txs []domain.Transaction, details datatypes.JSON) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(txs) > 0 {
			for i := range txs {
				txs[i].StatementID = id
			}
			if err := tx.Create(&txs).Error; err != nil {
				return fmt.Errorf("inserting transactions: %w", err)
			}
		}
		return updateStatus(tx, id, domain.StatusCompleted, details)
	})
	if err != nil {
		return fmt.Errorf("CompleteStatement: %w", err)
	}
	return nil
}

// Delete removes a statement. Its transactions go with it.
func (r *StatementRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Statement{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("DeleteStatement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteStatement: %w", ErrNotFound)
	}
	return nil
}

func updateStatus(db *gorm.DB, id string, next domain.ProcessingStatus, details datatypes.JSON) error {
	from := next.Predecessors()
	if len(from) == 0 {
		return ErrStatusTransition
	}

	res := db.Model(&domain.Statement{}).
		Where("id = ? AND processing_status IN ?", id, from).
		Updates(map[string]interface{}{
			"processing_status":  next,
			"validation_details": details,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&domain.Statement{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusTransition
}
