package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
)

// ProxyHandler forwards guarded API calls verbatim to the backend. The
// portal is agnostic to these payload shapes; it only guarantees the bearer
// token rides along and 401s tear the session down.
type ProxyHandler struct {
	gateway ports.BackendGateway
}

func NewProxyHandler(gateway ports.BackendGateway) *ProxyHandler {
	return &ProxyHandler{gateway: gateway}
}

func (h *ProxyHandler) Forward(c echo.Context) error {
	req := c.Request()

	var body any
	if req.Body != nil && req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
	}

	path := req.URL.Path
	if req.URL.RawQuery != "" {
		path += "?" + req.URL.RawQuery
	}

	var out any
	status, err := h.gateway.Do(req.Context(), req.Method, path, body, &out)
	if err != nil {
		return err
	}
	if out == nil {
		return c.NoContent(status)
	}
	return c.JSON(status, out)
}
