package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
	"github.com/sweetcrumb/bakery-portal/internal/notify"
)

// stubStore is an in-memory ports.SessionStore.
type stubStore struct {
	mu    sync.Mutex
	token string
	user  *domain.User
}

func (s *stubStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *stubStore) Token(_ context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *stubStore) RemoveToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *stubStore) SetUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	return nil
}

func (s *stubStore) User(_ context.Context) (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.user != nil
}

func (s *stubStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}

// stubGateway is a ports.BackendGateway driven by function fields.
type stubGateway struct {
	mu        sync.Mutex
	token     string
	setTokens []string

	loginFn       func(ctx context.Context, email, password string) (string, error)
	registerFn    func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	currentUserFn func(ctx context.Context) (*domain.User, error)
}

func (g *stubGateway) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
	g.setTokens = append(g.setTokens, token)
}

func (g *stubGateway) currentToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

func (g *stubGateway) Login(ctx context.Context, email, password string) (string, error) {
	return g.loginFn(ctx, email, password)
}

func (g *stubGateway) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return g.registerFn(ctx, input)
}

func (g *stubGateway) CurrentUser(ctx context.Context) (*domain.User, error) {
	return g.currentUserFn(ctx)
}

func (g *stubGateway) Do(ctx context.Context, method, path string, body any, out any) (int, error) {
	return 200, nil
}

func (g *stubGateway) Ping(ctx context.Context) error { return nil }

func bakerUser() *domain.User {
	return &domain.User{ID: 1, Email: "a@b.com", Username: "bea", FullName: "Bea Baker", Role: domain.RoleBaker, IsActive: true}
}

func newController(store ports.SessionStore, gateway ports.BackendGateway) *SessionController {
	return NewSessionController(store, gateway, notify.NewCenter(8, zerolog.Nop()), zerolog.Nop())
}

func TestController_StartsRestoring(t *testing.T) {
	s := newController(&stubStore{}, &stubGateway{})
	if s.State() != domain.SessionRestoring {
		t.Fatalf("expected restoring, got %v", s.State())
	}
	if snap := s.Snapshot(); !snap.Loading || snap.IsAuthenticated {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestController_Restore_NothingPersisted(t *testing.T) {
	s := newController(&stubStore{}, &stubGateway{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			t.Fatalf("validation call must not happen without persisted state")
			return nil, nil
		},
	})

	if state := s.Restore(context.Background()); state != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", state)
	}
}

func TestController_Restore_ValidSession(t *testing.T) {
	store := &stubStore{token: "tok123", user: bakerUser()}
	gateway := &stubGateway{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return bakerUser(), nil
		},
	}
	s := newController(store, gateway)

	if state := s.Restore(context.Background()); state != domain.SessionAuthenticated {
		t.Fatalf("expected authenticated, got %v", state)
	}
	if gateway.currentToken() != "tok123" {
		t.Fatalf("token not propagated to gateway")
	}
	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.CurrentUser == nil || snap.CurrentUser.Username != "bea" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestController_Restore_RejectedToken(t *testing.T) {
	store := &stubStore{token: "stale", user: bakerUser()}
	gateway := &stubGateway{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return nil, domain.ErrSessionExpired
		},
	}
	s := newController(store, gateway)

	if state := s.Restore(context.Background()); state != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", state)
	}
	if _, ok := store.Token(context.Background()); ok {
		t.Fatalf("store not cleared after rejected restore")
	}
	if gateway.currentToken() != "" {
		t.Fatalf("gateway token not reset")
	}
}

func TestController_Login_Success(t *testing.T) {
	store := &stubStore{}
	gateway := &stubGateway{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			if email != "a@b.com" || password != "secret" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			return "tok123", nil
		},
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return bakerUser(), nil
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())

	user, err := s.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Role != domain.RoleBaker {
		t.Fatalf("unexpected user: %+v", user)
	}

	token, _ := store.Token(context.Background())
	if token != "tok123" {
		t.Fatalf("expected persisted token tok123, got %q", token)
	}
	persisted, ok := store.User(context.Background())
	if !ok || persisted.Role != domain.RoleBaker {
		t.Fatalf("expected persisted baker user, got %+v", persisted)
	}
	if !s.Snapshot().IsAuthenticated {
		t.Fatalf("expected authenticated session")
	}

	// Token was persisted before the profile fetch saw it on the gateway.
	if len(gateway.setTokens) == 0 || gateway.setTokens[len(gateway.setTokens)-1] != "tok123" {
		t.Fatalf("token not propagated to gateway: %v", gateway.setTokens)
	}
}

func TestController_Login_BadCredentials(t *testing.T) {
	store := &stubStore{}
	gateway := &stubGateway{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			// The gateway reports the backend's 401 as an expired session.
			return "", domain.ErrSessionExpired
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())

	_, err := s.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", s.State())
	}
}

func TestController_Login_ProfileFetchRollback(t *testing.T) {
	store := &stubStore{}
	fetchErr := errors.New("backend went away")
	gateway := &stubGateway{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			return "tok123", nil
		},
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return nil, fetchErr
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())

	_, err := s.Login(context.Background(), "a@b.com", "secret")
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected original failure re-raised, got %v", err)
	}
	if _, ok := store.Token(context.Background()); ok {
		t.Fatalf("residual token left in store after failed login")
	}
	if _, ok := store.User(context.Background()); ok {
		t.Fatalf("residual user left in store after failed login")
	}
	if gateway.currentToken() != "" {
		t.Fatalf("gateway token not rolled back")
	}
	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", s.State())
	}
}

func TestController_Login_SingleFlight(t *testing.T) {
	store := &stubStore{}
	started := make(chan struct{})
	release := make(chan struct{})
	gateway := &stubGateway{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			close(started)
			<-release
			return "tok123", nil
		},
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return bakerUser(), nil
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "a@b.com", "secret")
		done <- err
	}()
	<-started

	if _, err := s.Login(context.Background(), "a@b.com", "secret"); !errors.Is(err, domain.ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}
	if snap := s.Snapshot(); !snap.Loading {
		t.Fatalf("expected loading while login in flight")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first login failed: %v", err)
	}
}

func TestController_Register_NoAutoLogin(t *testing.T) {
	store := &stubStore{}
	gateway := &stubGateway{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
			if input.Role != domain.RoleCustomer {
				t.Fatalf("unexpected role: %s", input.Role)
			}
			return &domain.User{ID: 7, Email: input.Email, Username: input.Username, Role: input.Role}, nil
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())

	user, err := s.Register(context.Background(), ports.RegisterInput{
		Email: "new@b.com", Username: "new", FullName: "New Customer",
		Password: "longenough", Role: domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("unexpected user: %+v", user)
	}

	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("register must not mutate session state, got %v", s.State())
	}
	if _, ok := store.Token(context.Background()); ok {
		t.Fatalf("register must not persist a token")
	}
}

func TestController_Register_FailureReRaised(t *testing.T) {
	regErr := errors.New("email already registered")
	gateway := &stubGateway{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
			return nil, regErr
		},
	}
	s := newController(&stubStore{}, gateway)
	s.Restore(context.Background())

	if _, err := s.Register(context.Background(), ports.RegisterInput{}); !errors.Is(err, regErr) {
		t.Fatalf("expected failure re-raised, got %v", err)
	}
}

func TestController_Logout(t *testing.T) {
	store := &stubStore{token: "tok123", user: bakerUser()}
	gateway := &stubGateway{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return bakerUser(), nil
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())
	if s.State() != domain.SessionAuthenticated {
		t.Fatalf("setup: expected authenticated")
	}

	s.Logout(context.Background())

	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated after logout")
	}
	if _, ok := store.Token(context.Background()); ok {
		t.Fatalf("token survived logout")
	}
	if gateway.currentToken() != "" {
		t.Fatalf("gateway token survived logout")
	}
}

func TestController_HasRole_ExactMatch(t *testing.T) {
	store := &stubStore{token: "tok123", user: &domain.User{ID: 1, Email: "a@b.com", Username: "root", Role: domain.RoleAdmin}}
	gateway := &stubGateway{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return store.user, nil
		},
	}
	s := newController(store, gateway)

	if s.HasRole(domain.RoleAdmin) {
		t.Fatalf("unauthenticated session must have no role")
	}

	s.Restore(context.Background())

	if !s.HasRole(domain.RoleAdmin) {
		t.Fatalf("expected admin role")
	}
	for _, role := range []string{domain.RoleCustomer, domain.RoleBaker, domain.RoleDelivery, "superuser", ""} {
		if s.HasRole(role) {
			t.Fatalf("role %q must not match admin", role)
		}
	}
}

func TestController_Invalidate(t *testing.T) {
	store := &stubStore{token: "tok123", user: bakerUser()}
	gateway := &stubGateway{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			return bakerUser(), nil
		},
	}
	s := newController(store, gateway)
	s.Restore(context.Background())

	s.Invalidate()

	if s.State() != domain.SessionUnauthenticated {
		t.Fatalf("expected unauthenticated after invalidate")
	}
	if snap := s.Snapshot(); snap.IsAuthenticated || snap.CurrentUser != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
