package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/deposily/deposily/internal/domain"
	"gorm.io/gorm"
)

// TransactionRepository reads transactions and maintains their client link.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a TransactionRepository on db.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Get loads one transaction.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", translate(err))
	}
	return &t, nil
}

// ListCandidates returns the transactions a client may be matched against,
// ordered by transaction date then insertion time. An empty ownerID returns
// transactions of every user.
func (r *TransactionRepository) ListCandidates(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if ownerID != "" {
		q = q.Joins("JOIN statements ON statements.id = transactions.statement_id").
			Where("statements.user_id = ?", ownerID)
	}

	var out []domain.Transaction
	err := q.Select("transactions.*").
		Order("transactions.transaction_date ASC, transactions.created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("ListCandidates: %w", err)
	}
	return out, nil
}

// CountForClientBetween counts transactions assigned to clientID whose date
// falls in [start, end].
func (r *TransactionRepository) CountForClientBetween(ctx context.Context, clientID string, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("client_id = ? AND transaction_date >= ? AND transaction_date <= ?", clientID, start.UTC(), end.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("CountForClientBetween: %w", err)
	}
	return n, nil
}

// AssignClient sets or clears (clientID == nil) the client of one transaction.
func (r *TransactionRepository) AssignClient(ctx context.Context, id string, clientID *string) error {
	res := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ?", id).
		Update("client_id", clientID)
	if res.Error != nil {
		return fmt.Errorf("AssignClient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("AssignClient: %w", ErrNotFound)
	}
	return nil
}

// AssignUnassigned links every transaction in ids that belongs to a statement
// of ownerID and has no client yet to clientID, and reports how many rows
// changed.
func (r *TransactionRepository) AssignUnassigned(ctx context.Context, ownerID string, ids []string, clientID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	owned := r.db.Model(&domain.Statement{}).Select("id").Where("user_id = ?", ownerID)
	res := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id IN ? AND client_id IS NULL", ids).
		Where("statement_id IN (?)", owned).
		Update("client_id", clientID)
	if res.Error != nil {
		return 0, fmt.Errorf("AssignUnassigned: %w", res.Error)
	}
	return res.RowsAffected, nil
}
