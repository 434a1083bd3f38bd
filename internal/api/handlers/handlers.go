package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/deposily/deposily/internal/api/middleware"
	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/auth"
	"github.com/deposily/deposily/internal/domain"
)

// maxJSONBody caps request bodies of the JSON endpoints.
const maxJSONBody = 1 << 20

// NewRouter registers every endpoint on a new ServeMux.
func NewRouter(clients *ClientsHandler, statements *StatementsHandler, transactions *TransactionsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Clients endpoints
	mux.HandleFunc("/api/clients", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			clients.ListClients(w, r)
		case http.MethodPost:
			clients.CreateClient(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/clients/", func(w http.ResponseWriter, r *http.Request) {
		id, action, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/clients/"), "/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Client ID is required")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			clients.GetClient(w, r, id)
		case action == "" && r.Method == http.MethodPut:
			clients.UpdateClient(w, r, id)
		case action == "" && r.Method == http.MethodDelete:
			clients.DeleteClient(w, r, id)
		case action == "assign-matches" && r.Method == http.MethodPost:
			clients.AssignMatches(w, r, id)
		case action == "" || action == "assign-matches":
			methodNotAllowed(w)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	// Statements endpoints
	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statements.ListStatements(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/statements/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statements.UploadStatement(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/statements/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/statements/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			statements.GetStatement(w, r, id)
		case http.MethodDelete:
			statements.DeleteStatement(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodPut {
			transactions.AssignTransaction(w, r, id)
		} else {
			methodNotAllowed(w)
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	return mux
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		middleware.WriteAppError(w, r, apperrors.Unauthorized("Unauthorized"))
		return nil, false
	}
	return user, true
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteAppError(w, r, apperrors.Validation("Invalid request body"))
		return false
	}
	return true
}
