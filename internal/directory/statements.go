package directory

import (
	"context"
	"errors"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/deposily/deposily/internal/logger"
)

// StatementSummary is a statement with only the ids of its transactions.
type StatementSummary struct {
	domain.Statement
	TransactionIDs []string
}

// ListStatements returns the user's statements, newest upload first.
func (s *Service) ListStatements(ctx context.Context, userID string) ([]StatementSummary, error) {
	list, err := s.statements.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch statements", err)
	}

	out := make([]StatementSummary, 0, len(list))
	for _, st := range list {
		ids := make([]string, 0, len(st.Transactions))
		for _, tx := range st.Transactions {
			ids = append(ids, tx.ID)
		}
		st.Transactions = nil
		out = append(out, StatementSummary{Statement: st, TransactionIDs: ids})
	}
	return out, nil
}

// GetStatement returns a statement with its transactions.
func (s *Service) GetStatement(ctx context.Context, userID, id string) (*domain.Statement, error) {
	return s.ownedStatement(ctx, userID, id)
}

// DeleteStatement removes a statement and its transactions. The archived
// upload is removed on a best-effort basis.
func (s *Service) DeleteStatement(ctx context.Context, userID, id string) error {
	st, err := s.ownedStatement(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.statements.Delete(ctx, id); err != nil {
		if errors.Is(err, sqlstore.ErrNotFound) {
			return apperrors.NotFound("Statement not found")
		}
		return apperrors.Internal("Failed to delete statement", err)
	}

	if st.Filepath != nil && *st.Filepath != "" {
		if err := s.archiver.Delete(ctx, *st.Filepath); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).
				Str("statement_id", id).
				Str("uri", *st.Filepath).
				Msg("Failed to delete archived upload")
		}
	}
	return nil
}
