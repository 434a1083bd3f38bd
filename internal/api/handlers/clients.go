package handlers

import (
	"context"
	"net/http"

	"github.com/deposily/deposily/internal/api/middleware"
	"github.com/deposily/deposily/internal/directory"
	"github.com/deposily/deposily/internal/domain"
)

// ClientService is the client directory used by ClientsHandler.
type ClientService interface {
	CreateClient(ctx context.Context, userID string, in directory.CreateClientInput) (*domain.Client, error)
	UpdateClient(ctx context.Context, userID, id string, in directory.UpdateClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, userID, id string) error
	ListClients(ctx context.Context, userID string) ([]directory.ClientWithStatus, error)
	GetClient(ctx context.Context, userID, id string) (*directory.ClientWithTransactions, error)
	AssignMatches(ctx context.Context, userID, id string) (int64, error)
}

// ClientsHandler handles client-related endpoints.
type ClientsHandler struct {
	svc ClientService
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(svc ClientService) *ClientsHandler {
	return &ClientsHandler{svc: svc}
}

// ListClients handles GET /api/clients
func (h *ClientsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	clients, err := h.svc.ListClients(r.Context(), user.ID)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}

	out := make([]clientStatusResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, clientStatusResponse{
			clientResponse:   newClientResponse(c.Client),
			HasPaidThisMonth: c.HasPaidThisMonth,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// CreateClient handles POST /api/clients
func (h *ClientsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in directory.CreateClientInput
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.svc.CreateClient(r.Context(), user.ID, in)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newClientResponse(*c))
}

// GetClient handles GET /api/clients/{id}
func (h *ClientsHandler) GetClient(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	c, err := h.svc.GetClient(r.Context(), user.ID, id)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newClientDetailResponse(c))
}

// UpdateClient handles PUT /api/clients/{id}
func (h *ClientsHandler) UpdateClient(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in directory.UpdateClientInput
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.svc.UpdateClient(r.Context(), user.ID, id, in)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newClientResponse(*c))
}

// DeleteClient handles DELETE /api/clients/{id}
func (h *ClientsHandler) DeleteClient(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteClient(r.Context(), user.ID, id); err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Client deleted successfully"})
}

// AssignMatches handles POST /api/clients/{id}/assign-matches
func (h *ClientsHandler) AssignMatches(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.svc.AssignMatches(r.Context(), user.ID, id)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int64{"assigned": n})
}
