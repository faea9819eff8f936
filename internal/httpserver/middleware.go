package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/models"
	"github.com/Skotchmaster/authservice/internal/permissions"
	"github.com/Skotchmaster/authservice/internal/service"
)

const accountKey = "account"

type AuthGate struct {
	Svc     *service.AuthService
	Cookies Cookies
}

// RequireAuth resolves the access_token cookie into an account and rejects
// anonymous requests.
func (g *AuthGate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "require_auth")

		acc, err := g.Svc.Authenticate(ctx, cookieValue(c.Request(), AccessCookie))
		if err != nil {
			l.Warn("auth_rejected", "error", err)
			if service.IsAuthFailure(err) {
				c.SetCookie(g.Cookies.Delete(AccessCookie))
			}
			return toHTTPError(err)
		}
		if acc == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
		}

		c.Set(accountKey, acc)
		c.Set("user_id", acc.ID.String())
		return next(c)
	}
}

// AdminOrReadOnly runs after RequireAuth and keeps unsafe methods for admins.
func (g *AuthGate) AdminOrReadOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !permissions.IsAdminOrReadOnly(currentAccount(c), c.Request().Method) {
			logging.FromContext(c.Request().Context()).Warn("admin_required", "status", 403, "path", c.Path())
			return echo.NewHTTPError(http.StatusForbidden, "permission denied")
		}
		return next(c)
	}
}

func currentAccount(c echo.Context) *models.Account {
	acc, _ := c.Get(accountKey).(*models.Account)
	return acc
}
