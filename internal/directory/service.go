// Package directory manages a user's clients and statements.
package directory

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/gcs"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/go-playground/validator/v10"
)

// ClientStore persists clients.
type ClientStore interface {
	Create(ctx context.Context, c *domain.Client) error
	Get(ctx context.Context, id string) (*domain.Client, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Client, error)
	ReferenceExists(ctx context.Context, userID, reference string) (bool, error)
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, id string) error
}

// StatementStore reads and deletes statements.
type StatementStore interface {
	Get(ctx context.Context, id string) (*domain.Statement, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Statement, error)
	Delete(ctx context.Context, id string) error
}

// TransactionStore reads transactions and sets their client.
type TransactionStore interface {
	Get(ctx context.Context, id string) (*domain.Transaction, error)
	AssignClient(ctx context.Context, id string, clientID *string) error
}

// Reconciler computes matches and payment status.
type Reconciler interface {
	Matches(ctx context.Context, client domain.Client) ([]domain.Transaction, error)
	HasPaidThisMonth(ctx context.Context, client domain.Client, now time.Time) (bool, error)
	AssignMatches(ctx context.Context, client domain.Client) (int64, error)
}

// Service implements the client and statement directory. Every operation is
// scoped to the requesting user.
type Service struct {
	clients      ClientStore
	statements   StatementStore
	transactions TransactionStore
	reconciler   Reconciler
	archiver     gcs.Archiver
	validate     *validator.Validate
	now          func() time.Time
	intn         func(int) int
}

// NewService creates a directory Service. archiver may be nil.
func NewService(clients ClientStore, statements StatementStore, transactions TransactionStore, reconciler Reconciler, archiver gcs.Archiver) *Service {
	if archiver == nil {
		archiver = gcs.Nop{}
	}
	return &Service{
		clients:      clients,
		statements:   statements,
		transactions: transactions,
		reconciler:   reconciler,
		archiver:     archiver,
		validate:     newValidator(),
		now:          time.Now,
		intn:         rand.IntN,
	}
}

func (s *Service) ownedClient(ctx context.Context, userID, id string) (*domain.Client, error) {
	c, err := s.clients.Get(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, apperrors.NotFound("Client not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load client", err)
	}
	if c.UserID != userID {
		return nil, apperrors.Forbidden("Forbidden")
	}
	return c, nil
}

func (s *Service) ownedStatement(ctx context.Context, userID, id string) (*domain.Statement, error) {
	st, err := s.statements.Get(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, apperrors.NotFound("Statement not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load statement", err)
	}
	if st.UserID != userID {
		return nil, apperrors.Forbidden("Forbidden")
	}
	return st, nil
}
