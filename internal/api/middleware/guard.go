package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/sweetcrumb/bakery-portal/internal/api/metrics"
	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
	"github.com/sweetcrumb/bakery-portal/internal/core/ports"
)

// GuardAction is the outcome of one navigation decision.
type GuardAction int

const (
	// ActionRender lets the destination view render.
	ActionRender GuardAction = iota
	// ActionDefer answers with a neutral loading indicator while the startup
	// restoration is still in flight; no redirect is issued yet.
	ActionDefer
	// ActionRedirectLogin sends the visitor to the login view with the
	// intended destination captured.
	ActionRedirectLogin
	// ActionRedirectHome sends an authenticated user of the wrong role to
	// their own role home, never to a generic forbidden page.
	ActionRedirectHome
)

func (a GuardAction) String() string {
	switch a {
	case ActionDefer:
		return "defer"
	case ActionRedirectLogin:
		return "redirect_login"
	case ActionRedirectHome:
		return "redirect_home"
	default:
		return "render"
	}
}

// Decision is a guard outcome plus the redirect target when one applies.
type Decision struct {
	Action   GuardAction
	Location string
}

// Decide is the route guard's core: a pure function of (session state,
// current user, required role, destination) with no side effects.
// requiredRole "" admits any authenticated user.
func Decide(state domain.SessionState, user *domain.User, requiredRole, destination string) Decision {
	switch {
	case state == domain.SessionRestoring:
		return Decision{Action: ActionDefer}
	case state != domain.SessionAuthenticated || user == nil:
		return Decision{Action: ActionRedirectLogin, Location: "/login?next=" + url.QueryEscape(destination)}
	case requiredRole != "" && user.Role != requiredRole:
		return Decision{Action: ActionRedirectHome, Location: domain.HomeFor(user.Role)}
	default:
		return Decision{Action: ActionRender}
	}
}

// Guard gates navigation to a route based on session state and the role the
// route declares. Each protected route names at most one required role;
// access is exact-match.
func Guard(sessions ports.SessionService, requiredRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := sessions.State()
			snap := sessions.Snapshot()

			decision := Decide(state, snap.CurrentUser, requiredRole, c.Request().URL.RequestURI())
			metrics.GuardDecisionsTotal.WithLabelValues(decision.Action.String()).Inc()

			switch decision.Action {
			case ActionDefer:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusOK, map[string]string{"status": "restoring"})
			case ActionRedirectLogin, ActionRedirectHome:
				return c.Redirect(http.StatusFound, decision.Location)
			default:
				return next(c)
			}
		}
	}
}
