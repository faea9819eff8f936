package authclient

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const UserKey = "auth_user"

// AutoRefreshMiddleware authenticates requests of a downstream service
// against the auth service. An access token the auth service rejects is
// refreshed once with the caller's refresh cookie before giving up.
type AutoRefreshMiddleware struct {
	AuthClient *Client
	Secure     bool
	SameSite   http.SameSite
}

func NewAutoRefreshMiddleware(authClient *Client) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{AuthClient: authClient, SameSite: http.SameSiteLaxMode}
}

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		access := cookieValue(c, accessCookie)
		refresh := cookieValue(c, refreshCookie)
		if access == "" && refresh == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		if access != "" {
			u, err := m.AuthClient.Me(ctx, access)
			if err == nil {
				setUserContext(c, u)
				return next(c)
			}
			if !errors.Is(err, ErrUnauthorized) {
				return echo.NewHTTPError(http.StatusBadGateway, "auth service unavailable")
			}
		}

		if refresh == "" {
			m.clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		res, err := m.AuthClient.Refresh(ctx, refresh)
		if err != nil {
			m.clearAuthCookies(c)
			if errors.Is(err, ErrUnauthorized) {
				return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
			}
			return echo.NewHTTPError(http.StatusBadGateway, "auth service unavailable")
		}
		c.SetCookie(&http.Cookie{
			Name:     accessCookie,
			Value:    res.AccessToken,
			Path:     "/",
			Expires:  res.Expires,
			MaxAge:   res.MaxAge,
			HttpOnly: true,
			Secure:   m.Secure,
			SameSite: m.SameSite,
		})

		u, err := m.AuthClient.Me(ctx, res.AccessToken)
		if err != nil {
			m.clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}
		setUserContext(c, u)
		return next(c)
	}
}

// CurrentUser returns the account attached by RequireAuth.
func CurrentUser(c echo.Context) *User {
	u, _ := c.Get(UserKey).(*User)
	return u
}

func (m *AutoRefreshMiddleware) clearAuthCookies(c echo.Context) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.Secure,
			SameSite: m.SameSite,
		})
	}
}

func setUserContext(c echo.Context, u *User) {
	c.Set(UserKey, u)
	c.Set("user_id", u.ID.String())
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
