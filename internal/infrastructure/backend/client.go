// Package backend implements the gateway client: the single point of
// outbound HTTP communication with the bakery backend. It injects the bearer
// token into every request, parses error envelopes, and on any 401 tears the
// persisted session down before the caller sees the failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sweetcrumb/bakery-portal/internal/api/metrics"
	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
)

const (
	loginPath       = "/api/auth/login"
	registerPath    = "/api/auth/register"
	currentUserPath = "/api/auth/me"
	healthPath      = "/api/health"
)

// Client talks to the bakery backend. The token is mutable so the session
// controller can propagate a freshly obtained one without a restart.
type Client struct {
	baseURL string
	http    *http.Client
	store   ports.SessionStore
	log     zerolog.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

func NewClient(baseURL string, timeout time.Duration, store ports.SessionStore, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		log:     log,
	}
}

// OnUnauthorized registers the hook invoked after a 401 has cleared the
// store, so the session controller can drop its in-memory state too.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// SetToken replaces the bearer token attached to subsequent requests.
// An empty string sends requests unauthenticated.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. The token is returned, not
// stored: persisting and propagating it is the session controller's job.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if _, err := c.Do(ctx, http.MethodPost, loginPath, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Register creates an account and returns the created user record.
func (c *Client) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	var user domain.User
	if _, err := c.Do(ctx, http.MethodPost, registerPath, input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the profile of the token's owner. A profile carrying a
// role this portal does not know is rejected: caching it would make every
// guard decision meaningless.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if _, err := c.Do(ctx, http.MethodGet, currentUserPath, nil, &user); err != nil {
		return nil, err
	}
	if !domain.ValidRole(user.Role) {
		return nil, fmt.Errorf("current user: unrecognized role %q", user.Role)
	}
	return &user, nil
}

// Ping checks backend reachability without authentication. Any HTTP response
// counts as reachable; only transport failures are reported. It deliberately
// bypasses Do so a probe can never tear down the session.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// Do sends one request to the backend. The bearer token is attached when
// set; a 401 response clears the store, invokes the unauthorized hook, and
// returns domain.ErrSessionExpired — no retry, no refresh flow. Other error
// statuses surface as *APIError. The response body is decoded into out when
// out is non-nil, and the backend's status code is returned alongside it.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(method, "error").Inc()
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, method, path)
		return resp.StatusCode, fmt.Errorf("%s %s: %w", method, path, domain.ErrSessionExpired)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("%s %s: %w", method, path, parseAPIError(resp.StatusCode, respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// handleUnauthorized is the centralized 401 reaction: clear persisted state
// synchronously, then let the hook drop the in-memory session.
func (c *Client) handleUnauthorized(ctx context.Context, method, path string) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("clearing session store after 401")
	}
	c.SetToken("")

	c.mu.RLock()
	hook := c.onUnauthorized
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}

	c.log.Warn().Str("method", method).Str("path", path).Msg("session invalidated by 401")
}
