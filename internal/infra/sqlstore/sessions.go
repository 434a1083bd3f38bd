package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/deposily/deposily/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository resolves session tokens to users.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a SessionRepository on db.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// UserForToken returns the owner of an unexpired session with token.
func (r *SessionRepository) UserForToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Preload("User").First(&s, "token = ?", token).Error
	if err != nil {
		return nil, fmt.Errorf("UserForToken: %w", translate(err))
	}
	if s.Expired(now) {
		return nil, fmt.Errorf("UserForToken: session expired: %w", ErrNotFound)
	}
	return &s.User, nil
}

// EnsureUser returns the user with email, creating it with name if missing.
func (r *SessionRepository) EnsureUser(ctx context.Context, email, name string) (*domain.User, error) {
	u := domain.User{Email: email, Name: name}
	err := r.db.WithContext(ctx).
		Where(domain.User{Email: email}).
		Attrs(domain.User{Name: name}).
		FirstOrCreate(&u).Error
	if err != nil {
		return nil, fmt.Errorf("EnsureUser: %w", err)
	}
	return &u, nil
}

// CreateSession stores s.
func (r *SessionRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error; err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&domain.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("DeleteExpired: %w", res.Error)
	}
	return res.RowsAffected, nil
}
