package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/sweetcrumb/bakery-portal/internal/api/handler"
	"github.com/sweetcrumb/bakery-portal/internal/api/middleware"
	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(sessions ports.SessionService, gateway ports.BackendGateway, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("bakery_portal"))

	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Session routes (intentionally unauthenticated) ---
	sessionHandler := handler.NewSessionHandler(sessions)
	e.GET("/login", sessionHandler.LoginView)
	e.POST("/login", sessionHandler.Login)
	e.POST("/register", sessionHandler.Register)
	e.POST("/logout", sessionHandler.Logout)
	e.GET("/session", sessionHandler.Session)

	// --- Guarded views ---
	anyUser := middleware.Guard(sessions, "")
	dashboards := handler.NewDashboardHandler(gateway, sessions)
	e.GET("/", dashboards.Home, anyUser)
	e.GET("/orders", dashboards.Orders, anyUser)
	e.GET("/admin", dashboards.Admin, middleware.Guard(sessions, domain.RoleAdmin))
	e.GET("/baker", dashboards.Baker, middleware.Guard(sessions, domain.RoleBaker))
	e.GET("/delivery", dashboards.Delivery, middleware.Guard(sessions, domain.RoleDelivery))

	// --- Pass-through API routes ---
	proxy := handler.NewProxyHandler(gateway)
	apiGroup := e.Group("/api", anyUser)
	for _, p := range []string{"/products", "/products/*", "/orders", "/orders/*", "/deliveries", "/deliveries/*"} {
		apiGroup.Any(p, proxy.Forward)
	}
	users := e.Group("/api/users", middleware.Guard(sessions, domain.RoleAdmin))
	users.Any("", proxy.Forward)
	users.Any("/*", proxy.Forward)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(gateway)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – is the backend reachable?

	return e
}
