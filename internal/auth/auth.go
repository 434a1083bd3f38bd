// Package auth resolves session tokens to users and carries the user in
// the request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/infra/sqlstore"
)

// CookieName is the session cookie accepted in place of a bearer token.
const CookieName = "deposily_session"

// SessionStore looks up sessions.
type SessionStore interface {
	UserForToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
}

// Authenticator resolves the user behind a request.
type Authenticator struct {
	sessions SessionStore
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator backed by sessions.
func NewAuthenticator(sessions SessionStore) *Authenticator {
	return &Authenticator{sessions: sessions, now: time.Now}
}

// Authenticate returns the user owning the request's session token.
func (a *Authenticator) Authenticate(r *http.Request) (*domain.User, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	user, err := a.sessions.UserForToken(r.Context(), token, a.now())
	if errors.Is(err, sqlstore.ErrNotFound) {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve session", err)
	}
	return user, nil
}

// TokenFromRequest reads the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

type contextKey struct{}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*domain.User)
	return user, ok && user != nil
}
