package directory

import (
	"context"
	"errors"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/infra/sqlstore"
)

// AssignTransaction sets (or clears, when clientID is nil) the client of a
// transaction. Both the transaction's statement and the client must belong
// to userID.
func (s *Service) AssignTransaction(ctx context.Context, userID, id string, clientID *string) (*domain.Transaction, error) {
	tx, err := s.transactions.Get(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, apperrors.NotFound("Transaction not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load transaction", err)
	}

	if _, err := s.ownedStatement(ctx, userID, tx.StatementID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("Transaction not found")
		}
		return nil, err
	}

	if clientID != nil {
		if _, err := s.ownedClient(ctx, userID, *clientID); err != nil {
			return nil, err
		}
	}

	if err := s.transactions.AssignClient(ctx, id, clientID); err != nil {
		if errors.Is(err, sqlstore.ErrNotFound) {
			return nil, apperrors.NotFound("Transaction not found")
		}
		return nil, apperrors.Internal("Failed to update transaction", err)
	}

	tx.ClientID = clientID
	return tx, nil
}
