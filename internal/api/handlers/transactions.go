package handlers

import (
	"context"
	"net/http"

	"github.com/deposily/deposily/internal/api/middleware"
	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/directory"
	"github.com/deposily/deposily/internal/domain"
)

// TransactionService assigns transactions to clients.
type TransactionService interface {
	AssignTransaction(ctx context.Context, userID, id string, clientID *string) (*domain.Transaction, error)
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	svc TransactionService
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc TransactionService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// AssignTransaction handles PUT /api/transactions/{id}. clientId must be
// present; null clears the assignment.
func (h *TransactionsHandler) AssignTransaction(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ClientID directory.OptionalString `json:"clientId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.ClientID.Set {
		middleware.WriteAppError(w, r, apperrors.Validation("Invalid input").WithDetail("clientId", "clientId is required."))
		return
	}

	tx, err := h.svc.AssignTransaction(r.Context(), user.ID, id, req.ClientID.Value)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}
