package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deposily/deposily/internal/domain"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionIssuer creates users and sessions.
type SessionIssuer interface {
	EnsureUser(ctx context.Context, email, name string) (*domain.User, error)
	CreateSession(ctx context.Context, s *domain.Session) error
}

// EnsureUser normalises email and returns the matching user, creating it
// when missing. An empty name defaults to the local part of the email.
func EnsureUser(ctx context.Context, store SessionIssuer, email, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return store.EnsureUser(ctx, email, name)
}

// Issue creates (or reuses) the user with email and opens a new session for
// it that expires after ttl.
func Issue(ctx context.Context, store SessionIssuer, email, name string, ttl time.Duration, now time.Time) (*domain.Session, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	user, err := EnsureUser(ctx, store, email, name)
	if err != nil {
		return nil, fmt.Errorf("Issue: %w", err)
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("Issue: generating token: %w", err)
	}

	s := &domain.Session{
		Token:     token.String(),
		UserID:    user.ID,
		ExpiresAt: now.UTC().Add(ttl),
	}
	if err := store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("Issue: %w", err)
	}
	s.User = *user
	return s, nil
}
