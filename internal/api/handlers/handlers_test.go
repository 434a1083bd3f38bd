package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deposily/deposily/internal/api/middleware"
	"github.com/deposily/deposily/internal/auth"
	"github.com/deposily/deposily/internal/database"
	"github.com/deposily/deposily/internal/directory"
	"github.com/deposily/deposily/internal/extraction"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/deposily/deposily/internal/ingest"
	"github.com/deposily/deposily/internal/reconcile"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExtractor struct {
	ExtractFunc func(ctx context.Context, doc extraction.Document, report extraction.AttemptFunc) (extraction.Outcome, error)
}

func (m *mockExtractor) Extract(ctx context.Context, doc extraction.Document, report extraction.AttemptFunc) (extraction.Outcome, error) {
	return m.ExtractFunc(ctx, doc, report)
}

type testAPI struct {
	handler   http.Handler
	extractor *mockExtractor
	alice     string
	bob       string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.db")
	require.NoError(t, database.Migrate(path))
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	sessions := sqlstore.NewSessionRepository(db)
	statements := sqlstore.NewStatementRepository(db)
	transactions := sqlstore.NewTransactionRepository(db)
	clients := sqlstore.NewClientRepository(db)

	now := time.Now()
	alice, err := auth.Issue(context.Background(), sessions, "alice@example.com", "Alice", time.Hour, now)
	require.NoError(t, err)
	bob, err := auth.Issue(context.Background(), sessions, "bob@example.com", "Bob", time.Hour, now)
	require.NoError(t, err)

	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, doc extraction.Document, report extraction.AttemptFunc) (extraction.Outcome, error) {
			return extraction.ValidStatement{}, nil
		},
	}
	engine := reconcile.NewEngine(transactions, time.UTC, true)
	dir := directory.NewService(clients, statements, transactions, engine, nil)
	ing := ingest.NewService(statements, extractor, ingest.Options{Location: time.UTC})

	router := NewRouter(
		NewClientsHandler(dir),
		NewStatementsHandler(dir, ing),
		NewTransactionsHandler(dir),
	)
	handler := middleware.RequestID(zerolog.Nop())(
		middleware.Auth(auth.NewAuthenticator(sessions))(router),
	)

	return &testAPI{handler: handler, extractor: extractor, alice: alice.Token, bob: bob.Token}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			r = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(t *testing.T, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="statement"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "x"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/statements/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (a *testAPI) createClient(t *testing.T, token string, body map[string]interface{}) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/clients", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c map[string]interface{}
	decode(t, rec, &c)
	return c["id"].(string)
}

func TestHealthIsPublic(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestRequiresSession(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{"/api/clients", "/api/statements"} {
		rec := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestClientPaymentDayRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	id := api.createClient(t, api.alice, map[string]interface{}{
		"name": "Acme Ltd", "clientReference": "ACME-1", "expectedPaymentDay": 25,
	})

	rec := api.do(t, http.MethodGet, "/api/clients/"+id, api.alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expectedPaymentDay":25`)

	var got map[string]interface{}
	decode(t, rec, &got)
	assert.Equal(t, float64(25), got["expectedPaymentDay"])
	assert.Equal(t, []interface{}{}, got["transactions"])

	rec = api.do(t, http.MethodPut, "/api/clients/"+id, api.alice, `{"expectedPaymentDay":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Nil(t, got["expectedPaymentDay"])
	assert.Equal(t, "Acme Ltd", got["name"])
}

func TestCreateClient_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.createClient(t, api.alice, map[string]interface{}{"name": "Acme", "clientReference": "ACME"})

	rec := api.do(t, http.MethodPost, "/api/clients", api.alice, map[string]interface{}{"name": "Other", "clientReference": "ACME"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	var errBody middleware.ErrorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "Client reference already exists for this user.", errBody.Error)

	rec = api.do(t, http.MethodGet, "/api/clients", api.alice, nil)
	var list []map[string]interface{}
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["hasPaidThisMonth"])

	rec = api.do(t, http.MethodPost, "/api/clients", api.alice, map[string]interface{}{"name": "X", "clientReference": "R", "expectedPaymentDay": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &errBody)
	assert.Contains(t, errBody.Details, "name")
	assert.Contains(t, errBody.Details, "expectedPaymentDay")

	rec = api.do(t, http.MethodPost, "/api/clients", api.alice, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientOwnership(t *testing.T) {
	api := newTestAPI(t)
	id := api.createClient(t, api.alice, map[string]interface{}{"name": "Acme", "clientReference": "ACME"})

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/clients/"+id, api.bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodDelete, "/api/clients/"+id, api.bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/clients/missing", api.alice, nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(t, http.MethodPatch, "/api/clients/"+id, api.alice, nil).Code)

	rec := api.do(t, http.MethodDelete, "/api/clients/"+id, api.alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg map[string]string
	decode(t, rec, &msg)
	assert.NotEmpty(t, msg["message"])
}

func TestUploadStatement(t *testing.T) {
	api := newTestAPI(t)
	api.extractor.ExtractFunc = func(ctx context.Context, doc extraction.Document, report extraction.AttemptFunc) (extraction.Outcome, error) {
		ref := "INV-ABC123"
		return extraction.ValidStatement{Transactions: []extraction.Transaction{
			{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "SALARY INV-ABC123", Amount: decimal.RequireFromString("1000.00"), Reference: &ref},
			{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Description: "FEE", Amount: decimal.RequireFromString("-50")},
		}}, nil
	}

	rec := api.upload(t, api.alice, "march.csv", "text/csv", []byte("date,description,amount\n2024-03-01,SALARY,1000\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]interface{}
	decode(t, rec, &res)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, float64(1), res["transactionCount"])
	statementID := res["statementId"].(string)

	rec = api.do(t, http.MethodGet, "/api/statements", api.alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "completed", list[0]["processingStatus"])
	assert.Equal(t, float64(1), list[0]["transactionCount"])
	refs := list[0]["transactions"].([]interface{})
	require.Len(t, refs, 1)
	assert.Len(t, refs[0].(map[string]interface{}), 1)

	rec = api.do(t, http.MethodGet, "/api/statements/"+statementID, api.alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Transactions []struct {
			ID     string `json:"id"`
			Amount string `json:"amount"`
		} `json:"transactions"`
	}
	decode(t, rec, &detail)
	require.Len(t, detail.Transactions, 1)
	assert.Equal(t, "1000", detail.Transactions[0].Amount)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/statements/"+statementID, api.bob, nil).Code)

	clientID := api.createClient(t, api.alice, map[string]interface{}{"name": "ABC", "clientReference": "INV-ABC123"})
	rec = api.do(t, http.MethodGet, "/api/clients/"+clientID, api.alice, nil)
	var client struct {
		Transactions []map[string]interface{} `json:"transactions"`
	}
	decode(t, rec, &client)
	assert.Len(t, client.Transactions, 1)

	rec = api.do(t, http.MethodPut, "/api/transactions/"+detail.Transactions[0].ID, api.alice, map[string]interface{}{"clientId": clientID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tx map[string]interface{}
	decode(t, rec, &tx)
	assert.Equal(t, clientID, tx["clientId"])

	rec = api.do(t, http.MethodPut, "/api/transactions/"+detail.Transactions[0].ID, api.alice, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "clientId is required.")

	rec = api.do(t, http.MethodPut, "/api/transactions/"+detail.Transactions[0].ID, api.alice, map[string]interface{}{"clientId": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx = nil
	decode(t, rec, &tx)
	assert.Nil(t, tx["clientId"])

	rec = api.do(t, http.MethodDelete, "/api/statements/"+statementID, api.alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/statements/"+statementID, api.alice, nil).Code)
}

func TestUploadStatement_Rejections(t *testing.T) {
	api := newTestAPI(t)

	t.Run("invalid statement", func(t *testing.T) {
		api.extractor.ExtractFunc = func(ctx context.Context, doc extraction.Document, report extraction.AttemptFunc) (extraction.Outcome, error) {
			return extraction.InvalidStatement{Reason: "no transaction table found"}, nil
		}
		rec := api.upload(t, api.alice, "cat.pdf", "application/pdf", []byte("%PDF-1.4 not a statement"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body middleware.ErrorResponse
		decode(t, rec, &body)
		assert.Equal(t, "no transaction table found", body.Reason)
	})

	t.Run("unsupported type", func(t *testing.T) {
		rec := api.upload(t, api.alice, "photo.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		rec := api.upload(t, api.alice, "big.csv", "text/csv", bytes.Repeat([]byte("a"), ingest.MaxUploadSize+1))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body middleware.ErrorResponse
		decode(t, rec, &body)
		assert.Equal(t, "File size exceeds 10MB limit", body.Error)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := api.upload(t, api.alice, "", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body middleware.ErrorResponse
		decode(t, rec, &body)
		assert.Equal(t, "A Bank Statement is required", body.Error)
	})

	rec := api.do(t, http.MethodGet, "/api/statements", api.alice, nil)
	var list []map[string]interface{}
	decode(t, rec, &list)
	require.Len(t, list, 1, "only the rejected statement is recorded")
	assert.Equal(t, "failed", list[0]["processingStatus"])
}
