package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/deposily/deposily/internal/api/middleware"
	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/directory"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/ingest"
)

const (
	// uploadField is the multipart field holding the statement file.
	uploadField = "statement"

	// Room for multipart headers on top of the file itself. A file between
	// MaxUploadSize and this limit is rejected by ingest validation.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// StatementService is the statement directory used by StatementsHandler.
type StatementService interface {
	ListStatements(ctx context.Context, userID string) ([]directory.StatementSummary, error)
	GetStatement(ctx context.Context, userID, id string) (*domain.Statement, error)
	DeleteStatement(ctx context.Context, userID, id string) error
}

// Ingester processes uploaded statements.
type Ingester interface {
	Ingest(ctx context.Context, userID string, upload ingest.Upload) (*ingest.Result, error)
}

// StatementsHandler handles statement-related endpoints.
type StatementsHandler struct {
	svc      StatementService
	ingester Ingester
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(svc StatementService, ingester Ingester) *StatementsHandler {
	return &StatementsHandler{svc: svc, ingester: ingester}
}

// ListStatements handles GET /api/statements
func (h *StatementsHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.svc.ListStatements(r.Context(), user.ID)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}

	out := make([]statementSummaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, newStatementSummaryResponse(s))
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// GetStatement handles GET /api/statements/{id}
func (h *StatementsHandler) GetStatement(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	st, err := h.svc.GetStatement(r.Context(), user.ID, id)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newStatementDetailResponse(st))
}

// DeleteStatement handles DELETE /api/statements/{id}
func (h *StatementsHandler) DeleteStatement(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteStatement(r.Context(), user.ID, id); err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Statement deleted successfully"})
}

// UploadStatement handles POST /api/statements/upload
func (h *StatementsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	upload, err := readUpload(w, r)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}

	res, err := h.ingester.Ingest(r.Context(), user.ID, upload)
	if err != nil {
		middleware.WriteAppError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, uploadResponse{
		Success:          true,
		StatementID:      res.StatementID,
		TransactionCount: res.TransactionCount,
	})
}

func readUpload(w http.ResponseWriter, r *http.Request) (ingest.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ingest.Upload{}, apperrors.Validation("File size exceeds 10MB limit")
		}
		return ingest.Upload{}, apperrors.Validation("A Bank Statement is required")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return ingest.Upload{}, apperrors.Validation("A Bank Statement is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ingest.Upload{}, apperrors.Internal("Failed to read upload", err)
	}

	return ingest.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
