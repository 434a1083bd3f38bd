package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/logger"
)

// TransactionStore is the persistence reconciliation reads from.
type TransactionStore interface {
	ListCandidates(ctx context.Context, ownerID string) ([]domain.Transaction, error)
	CountForClientBetween(ctx context.Context, clientID string, start, end time.Time) (int64, error)
	AssignUnassigned(ctx context.Context, ownerID string, ids []string, clientID string) (int64, error)
}

// Engine computes matches and payment status on every read.
type Engine struct {
	transactions TransactionStore
	location     *time.Location
	ownerScoped  bool
}

// NewEngine creates an Engine. With ownerScoped unset Matches reads
// transactions of every user; assignment stays owner scoped.
func NewEngine(transactions TransactionStore, location *time.Location, ownerScoped bool) *Engine {
	if location == nil {
		location = time.Local
	}
	return &Engine{
		transactions: transactions,
		location:     location,
		ownerScoped:  ownerScoped,
	}
}

// Location is the timezone used for month windows.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Matches loads the candidate set for client and filters it.
func (e *Engine) Matches(ctx context.Context, client domain.Client) ([]domain.Transaction, error) {
	owner := ""
	if e.ownerScoped {
		owner = client.UserID
	}

	candidates, err := e.transactions.ListCandidates(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("Matches: %w", err)
	}
	return MatchTransactionsForClient(client, candidates), nil
}

// HasPaidThisMonth reports whether any transaction assigned to client is
// dated within the month containing now.
func (e *Engine) HasPaidThisMonth(ctx context.Context, client domain.Client, now time.Time) (bool, error) {
	start, end := MonthBounds(now, e.location)
	n, err := e.transactions.CountForClientBetween(ctx, client.ID, start, end)
	if err != nil {
		return false, fmt.Errorf("HasPaidThisMonth: %w", err)
	}
	return n > 0, nil
}

// AssignMatches links every matched transaction of the client's owner that
// has no client yet to client and returns how many were linked. Other users'
// transactions are never assigned, whatever the read scope.
func (e *Engine) AssignMatches(ctx context.Context, client domain.Client) (int64, error) {
	candidates, err := e.transactions.ListCandidates(ctx, client.UserID)
	if err != nil {
		return 0, fmt.Errorf("AssignMatches: %w", err)
	}
	matched := MatchTransactionsForClient(client, candidates)

	ids := make([]string, 0, len(matched))
	for _, tx := range matched {
		if tx.ClientID == nil {
			ids = append(ids, tx.ID)
		}
	}

	n, err := e.transactions.AssignUnassigned(ctx, client.UserID, ids, client.ID)
	if err != nil {
		return 0, fmt.Errorf("AssignMatches: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("client_id", client.ID).
		Int("matched", len(matched)).
		Int64("assigned", n).
		Msg("Assigned matched transactions")
	return n, nil
}
