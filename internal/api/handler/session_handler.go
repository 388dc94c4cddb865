package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
	"github.com/sweetcrumb/bakery-portal/internal/infrastructure/backend"
)

// SessionHandler serves the login/register/logout flows and exposes the
// session snapshot to the views.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Username string `json:"username" form:"username" validate:"required"`
	FullName string `json:"full_name" form:"full_name" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
	Role     string `json:"role" form:"role" validate:"required,oneof=customer baker delivery_person admin"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
}

// LoginView renders the login view shell. The next parameter, when present,
// is echoed back so the form can carry the intended destination through.
func (h *SessionHandler) LoginView(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"view": "login",
		"next": safeNext(c.QueryParam("next")),
	})
}

// Login signs the user in and navigates to the captured destination, or to
// the user's role home when none was captured.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return c.JSON(authFailureStatus(err), map[string]string{"error": authFailureDetail(err)})
	}

	next := safeNext(c.QueryParam("next"))
	if next == "" {
		next = domain.HomeFor(user.Role)
	}
	return c.Redirect(http.StatusFound, next)
}

// Register creates an account and sends the visitor to the login view.
// There is no auto-login.
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	_, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return c.JSON(authFailureStatus(err), map[string]string{"error": authFailureDetail(err)})
	}

	return c.Redirect(http.StatusFound, "/login")
}

// Logout invalidates the session client-side and returns to the login view.
func (h *SessionHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context())
	return c.Redirect(http.StatusFound, "/login")
}

// Session exposes the current session snapshot to the views.
func (h *SessionHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Snapshot())
}

// authFailureStatus maps a session operation failure onto the status the
// caller renders. Backend validation failures pass through verbatim.
func authFailureStatus(err error) int {
	if apiErr, ok := backend.AsAPIError(err); ok {
		return apiErr.StatusCode
	}
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrOperationInFlight):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func authFailureDetail(err error) string {
	if apiErr, ok := backend.AsAPIError(err); ok {
		return apiErr.Detail
	}
	return err.Error()
}

// safeNext admits only local paths as a post-login destination, so a crafted
// next parameter can never redirect off the portal.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.Contains(next, "://") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
