package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/database"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepo(t *testing.T) *sqlstore.SessionRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.db")
	require.NoError(t, database.Migrate(path))
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return sqlstore.NewSessionRepository(db)
}

func TestIssueAndAuthenticate(t *testing.T) {
	repo := newSessionRepo(t)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	s, err := Issue(context.Background(), repo, " Alice@Example.com ", "", time.Hour, now)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "alice@example.com", s.User.Email)
	assert.Equal(t, "alice", s.User.Name)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	again, err := Issue(context.Background(), repo, "alice@example.com", "Alice", time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, again.UserID)
	assert.NotEqual(t, s.Token, again.Token)

	authn := NewAuthenticator(repo)
	authn.now = func() time.Time { return now.Add(time.Minute) }

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer "+s.Token)
		user, err := authn.Authenticate(req)
		require.NoError(t, err)
		assert.Equal(t, s.UserID, user.ID)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: s.Token})
		user, err := authn.Authenticate(req)
		require.NoError(t, err)
		assert.Equal(t, s.UserID, user.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer nope")
		_, err := authn.Authenticate(req)
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		_, err := authn.Authenticate(req)
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewAuthenticator(repo)
		expired.now = func() time.Time { return now.Add(2 * time.Hour) }
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer "+s.Token)
		_, err := expired.Authenticate(req)
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	})
}

func TestIssue_RequiresEmail(t *testing.T) {
	_, err := Issue(context.Background(), newSessionRepo(t), "  ", "x", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"basic scheme", "Basic abc", "cookie", ""},
		{"cookie fallback", "", "cookie", "cookie"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, TokenFromRequest(req))
		})
	}
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &domain.User{ID: "u1"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}
