// Package reconcile associates transactions with clients and derives
// monthly payment status.
package reconcile

import (
	"strings"
	"time"

	"github.com/deposily/deposily/internal/domain"
)

// MatchTransactionsForClient returns every candidate whose description or
// extracted reference contains the client's reference, ignoring case.
// Candidate order is preserved. An empty reference matches nothing.
func MatchTransactionsForClient(client domain.Client, candidates []domain.Transaction) []domain.Transaction {
	ref := strings.ToLower(client.ClientReference)
	if ref == "" {
		return []domain.Transaction{}
	}

	matched := make([]domain.Transaction, 0)
	for _, tx := range candidates {
		if strings.Contains(strings.ToLower(tx.Description), ref) {
			matched = append(matched, tx)
			continue
		}
		if tx.ExtractedReference != nil && strings.Contains(strings.ToLower(*tx.ExtractedReference), ref) {
			matched = append(matched, tx)
		}
	}
	return matched
}

// MonthBounds returns the first and last instant of the calendar month that
// contains now in loc.
func MonthBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
