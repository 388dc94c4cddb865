package ports

import (
	"context"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
)

// SessionStore is durable key-value persistence for exactly two records: the
// bearer token and the cached user. Getters never fail: a missing, corrupt or
// schema-invalid record reads as absent. Clear removes both with no partial
// state observable to callers.
type SessionStore interface {
	SetToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, bool)
	RemoveToken(ctx context.Context) error

	SetUser(ctx context.Context, user *domain.User) error
	User(ctx context.Context) (*domain.User, bool)

	Clear(ctx context.Context) error
}
