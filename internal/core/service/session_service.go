package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweetcrumb/bakery-portal/internal/api/metrics"
	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
	"github.com/sweetcrumb/bakery-portal/internal/notify"
)

// SessionController owns the in-memory session and is the only component
// allowed to mutate it. It starts in the restoring state; callers are
// expected to run Restore once before serving traffic.
//
// Invariant: token and user are set or cleared together. The one exception
// is the window inside Login between persisting the token and persisting the
// fetched profile; every failure path inside that window re-clears the store
// so the rest of the application never observes a half-populated session.
type SessionController struct {
	store   ports.SessionStore
	gateway ports.BackendGateway
	notices *notify.Center
	log     zerolog.Logger

	mu       sync.Mutex
	state    domain.SessionState
	current  *domain.User
	inflight bool
}

func NewSessionController(store ports.SessionStore, gateway ports.BackendGateway, notices *notify.Center, log zerolog.Logger) *SessionController {
	return &SessionController{
		store:   store,
		gateway: gateway,
		notices: notices,
		log:     log,
		state:   domain.SessionRestoring,
	}
}

// Restore performs the startup check: when both a token and a cached user
// are persisted, one current-user round-trip confirms the token is still
// accepted and the session resumes with the cached user. Anything else
// resolves to unauthenticated with the store cleared.
func (s *SessionController) Restore(ctx context.Context) domain.SessionState {
	token, haveToken := s.store.Token(ctx)
	cached, haveUser := s.store.User(ctx)

	if !haveToken || !haveUser {
		_ = s.store.Clear(ctx)
		s.setUnauthenticated()
		return domain.SessionUnauthenticated
	}

	s.gateway.SetToken(token)
	if _, err := s.gateway.CurrentUser(ctx); err != nil {
		// The gateway already tore the store down if this was a 401; clear
		// again so transport failures end in the same place.
		_ = s.store.Clear(ctx)
		s.gateway.SetToken("")
		s.setUnauthenticated()
		metrics.SessionEventsTotal.WithLabelValues("restore_failure").Inc()
		s.log.Info().Err(err).Msg("persisted session rejected, starting unauthenticated")
		return domain.SessionUnauthenticated
	}

	s.mu.Lock()
	s.state = domain.SessionAuthenticated
	s.current = cached
	s.mu.Unlock()
	metrics.SessionEventsTotal.WithLabelValues("restore_success").Inc()
	s.log.Info().Str("username", cached.Username).Str("role", cached.Role).Msg("session restored")
	return domain.SessionAuthenticated
}

// Login exchanges credentials for a token, persists it, propagates it to the
// gateway, then fetches and persists the canonical profile. A failure in the
// profile fetch rolls the persisted token back so no residual token survives
// a half-completed login.
func (s *SessionController) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := s.beginOperation(); err != nil {
		return nil, err
	}
	defer s.endOperation()

	token, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		// The backend answers a bad credential exchange with 401, which the
		// gateway reports as an expired session; to the person on the login
		// form it is simply a rejected credential.
		if errors.Is(err, domain.ErrSessionExpired) {
			err = domain.ErrInvalidCredentials
		}
		return nil, s.failLogin(ctx, err)
	}

	if err := s.store.SetToken(ctx, token); err != nil {
		return nil, s.failLogin(ctx, fmt.Errorf("persist token: %w", err))
	}
	s.gateway.SetToken(token)

	user, err := s.gateway.CurrentUser(ctx)
	if err != nil {
		return nil, s.failLogin(ctx, fmt.Errorf("fetch profile: %w", err))
	}
	if err := s.store.SetUser(ctx, user); err != nil {
		return nil, s.failLogin(ctx, fmt.Errorf("persist profile: %w", err))
	}

	s.mu.Lock()
	s.state = domain.SessionAuthenticated
	s.current = user
	s.mu.Unlock()
	metrics.SessionEventsTotal.WithLabelValues("login_success").Inc()
	s.log.Info().Str("username", user.Username).Str("role", user.Role).Msg("login succeeded")
	return user, nil
}

// failLogin rolls persisted and in-memory state back to unauthenticated,
// publishes the user-facing notice, and re-raises the original failure.
func (s *SessionController) failLogin(ctx context.Context, err error) error {
	_ = s.store.Clear(ctx)
	s.gateway.SetToken("")
	s.setUnauthenticated()
	metrics.SessionEventsTotal.WithLabelValues("login_failure").Inc()
	s.notices.Publish(notify.LevelError, loginFailureMessage(err))
	s.log.Warn().Err(err).Msg("login failed")
	return err
}

func loginFailureMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return "Invalid email or password."
	}
	return "Could not sign you in. Please try again."
}

// Register creates an account. Session state is never mutated on success:
// there is no auto-login, the caller redirects to the login view.
func (s *SessionController) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if err := s.beginOperation(); err != nil {
		return nil, err
	}
	defer s.endOperation()

	user, err := s.gateway.Register(ctx, input)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("register_failure").Inc()
		s.notices.Publish(notify.LevelError, "Registration failed. Please review the form and try again.")
		s.log.Warn().Err(err).Msg("registration failed")
		return nil, err
	}

	metrics.SessionEventsTotal.WithLabelValues("register_success").Inc()
	s.notices.Publish(notify.LevelInfo, "Account created. Please sign in.")
	s.log.Info().Str("username", user.Username).Str("role", user.Role).Msg("account registered")
	return user, nil
}

// Logout clears persisted and in-memory state. There is no server-side
// session to revoke, so no network call is made.
func (s *SessionController) Logout(ctx context.Context) {
	_ = s.store.Clear(ctx)
	s.gateway.SetToken("")
	s.setUnauthenticated()
	metrics.SessionEventsTotal.WithLabelValues("logout").Inc()
	s.log.Info().Msg("logged out")
}

// Invalidate drops the in-memory session after the gateway's 401 teardown
// has already cleared the store. Wired as the gateway's unauthorized hook.
func (s *SessionController) Invalidate() {
	s.setUnauthenticated()
	metrics.SessionEventsTotal.WithLabelValues("forced_logout").Inc()
}

// HasRole reports whether the current user's role exactly matches role.
// There is no role hierarchy.
func (s *SessionController) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.Role == role
}

func (s *SessionController) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the observable session. Loading covers the startup
// restoration and any in-flight login/registration call.
func (s *SessionController) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *domain.User
	if s.current != nil {
		u := *s.current
		user = &u
	}
	return domain.Session{
		CurrentUser:     user,
		Loading:         s.state == domain.SessionRestoring || s.inflight,
		IsAuthenticated: user != nil && s.state == domain.SessionAuthenticated,
	}
}

// beginOperation enforces the single-flight rule: at most one login or
// registration call may be in flight per session.
func (s *SessionController) beginOperation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight {
		return domain.ErrOperationInFlight
	}
	s.inflight = true
	return nil
}

func (s *SessionController) endOperation() {
	s.mu.Lock()
	s.inflight = false
	s.mu.Unlock()
}

func (s *SessionController) setUnauthenticated() {
	s.mu.Lock()
	s.state = domain.SessionUnauthenticated
	s.current = nil
	s.mu.Unlock()
}
