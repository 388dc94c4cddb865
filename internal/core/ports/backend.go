package ports

import (
	"context"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
)

// RegisterInput is the full account-creation payload accepted by the backend.
type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// BackendGateway is the single point of outbound HTTP communication with the
// bakery backend. Implementations attach the bearer token to every request
// when one is set, and on any 401 clear the SessionStore and invoke the
// registered unauthorized hook before returning domain.ErrSessionExpired.
type BackendGateway interface {
	// SetToken replaces the token attached to subsequent requests.
	// An empty string sends requests unauthenticated.
	SetToken(token string)

	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
	// Register creates an account and returns the created user record.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// CurrentUser returns the profile of the token's owner.
	CurrentUser(ctx context.Context) (*domain.User, error)

	// Do forwards an arbitrary request to the backend (products, orders,
	// deliveries, users). The response body is decoded into out when non-nil,
	// and the backend's HTTP status is returned so callers can mirror it.
	Do(ctx context.Context, method, path string, body any, out any) (int, error)

	// Ping reports backend reachability without authentication and without
	// triggering session teardown.
	Ping(ctx context.Context) error
}
