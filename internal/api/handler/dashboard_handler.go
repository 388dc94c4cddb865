package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
)

// DashboardHandler serves the role dashboards. Each view is a thin shell:
// the payload is fetched pass-through from the backend, which remains the
// source of truth for all ordering/delivery state.
type DashboardHandler struct {
	gateway  ports.BackendGateway
	sessions ports.SessionService
}

func NewDashboardHandler(gateway ports.BackendGateway, sessions ports.SessionService) *DashboardHandler {
	return &DashboardHandler{gateway: gateway, sessions: sessions}
}

// view fetches one backend collection and wraps it in a view descriptor.
// The guard has already established the session, so CurrentUser is set.
func (h *DashboardHandler) view(c echo.Context, name, dataPath string) error {
	var data any
	if dataPath != "" {
		if _, err := h.gateway.Do(c.Request().Context(), http.MethodGet, dataPath, nil, &data); err != nil {
			return err
		}
	}

	snap := h.sessions.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"view": name,
		"user": snap.CurrentUser,
		"data": data,
	})
}

// Home is the default landing view for any authenticated user.
func (h *DashboardHandler) Home(c echo.Context) error {
	return h.view(c, "home", "/api/products")
}

// Orders lists the current user's orders.
func (h *DashboardHandler) Orders(c echo.Context) error {
	return h.view(c, "orders", "/api/orders")
}

// Admin is the administrator dashboard.
func (h *DashboardHandler) Admin(c echo.Context) error {
	return h.view(c, "admin", "/api/users")
}

// Baker is the baker dashboard.
func (h *DashboardHandler) Baker(c echo.Context) error {
	return h.view(c, "baker", "/api/orders")
}

// Delivery is the delivery-person dashboard.
func (h *DashboardHandler) Delivery(c echo.Context) error {
	return h.view(c, "delivery", "/api/deliveries")
}
