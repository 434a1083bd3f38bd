package sqlstore

import (
	"context"
	"fmt"

	"github.com/deposily/deposily/internal/domain"
	"gorm.io/gorm"
)

// ClientRepository persists clients.
type ClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a ClientRepository on db.
func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create inserts c. A reference already used by the same user yields
// ErrDuplicateReference.
func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("CreateClient: %w", translate(err))
	}
	return nil
}

// Get loads one client.
func (r *ClientRepository) Get(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("GetClient: %w", translate(err))
	}
	return &c, nil
}

// ListByUser returns all clients of userID ordered by name.
func (r *ClientRepository) ListByUser(ctx context.Context, userID string) ([]domain.Client, error) {
	var out []domain.Client
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("ListClients: %w", err)
	}
	return out, nil
}

// ReferenceExists reports whether userID already has a client with reference.
func (r *ClientRepository) ReferenceExists(ctx context.Context, userID, reference string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Client{}).
		Where("user_id = ? AND client_reference = ?", userID, reference).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("ReferenceExists: %w", err)
	}
	return n > 0, nil
}

// Update writes the mutable fields of c.
func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	res := r.db.WithContext(ctx).Model(c).
		Select("Name", "ClientReference", "ExpectedPaymentDay", "UpdatedAt").
		Updates(c)
	if res.Error != nil {
		return fmt.Errorf("UpdateClient: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateClient: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a client. Transactions that referenced it keep existing
// with no client.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Client{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("DeleteClient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteClient: %w", ErrNotFound)
	}
	return nil
}
