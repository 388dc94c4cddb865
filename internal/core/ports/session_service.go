package ports

import (
	"context"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
)

// SessionService is the sole owner of the in-memory session. All mutation
// happens through its operations; everything else observes via Snapshot.
type SessionService interface {
	// Restore runs the startup check against persisted state and returns the
	// resulting session state. It never fails: any error during validation
	// resolves to SessionUnauthenticated with the store cleared.
	Restore(ctx context.Context) domain.SessionState

	// Login exchanges credentials, persists the token, fetches and persists
	// the canonical profile, and transitions to authenticated. Failures leave
	// no partial session behind and are re-raised to the caller.
	Login(ctx context.Context, email, password string) (*domain.User, error)

	// Register creates an account. Session state is never mutated on success;
	// the caller is expected to send the user to the login view.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Logout clears persisted and in-memory session state. Pure client-side
	// invalidation, no network call.
	Logout(ctx context.Context)

	// HasRole reports whether the current user's role exactly matches role.
	HasRole(role string) bool

	State() domain.SessionState
	Snapshot() domain.Session
}
