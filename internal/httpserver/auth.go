package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authservice/internal/config"
	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/middleware/csrf"
	"github.com/Skotchmaster/authservice/internal/service"
	"github.com/Skotchmaster/authservice/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cfg     *config.Config
	Cookies Cookies
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = transport.Normalize(req.Email)
	if err := req.Validate(); err != nil {
		return toHTTPError(err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}

	c.SetCookie(h.Cookies.Create(AccessCookie, res.AccessToken, res.AccessExp, h.Cfg.AccessTTL))
	c.SetCookie(h.Cookies.Create(RefreshCookie, res.RefreshToken, res.RefreshExp, h.Cfg.RefreshTTL))

	return c.JSON(http.StatusOK, transport.LoginResponse{
		User:    transport.NewUserResponse(res.Account),
		Message: "Login successful",
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	res, err := h.Svc.Refresh(ctx, cookieValue(c.Request(), RefreshCookie))
	if err != nil {
		l.Warn("refresh_error", "error", err)
		return toHTTPError(err)
	}

	c.SetCookie(h.Cookies.Create(AccessCookie, res.AccessToken, res.AccessExp, h.Cfg.AccessTTL))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Token refreshed"})
}

// Logout clears both cookies whatever happens to the blacklist write.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	access := cookieValue(c.Request(), AccessCookie)
	refresh := cookieValue(c.Request(), RefreshCookie)

	c.SetCookie(h.Cookies.Delete(AccessCookie))
	c.SetCookie(h.Cookies.Delete(RefreshCookie))

	if err := h.Svc.Logout(ctx, access, refresh); err != nil {
		l.Error("logout_failed", "status", 503, "reason", "cannot blacklist tokens", "error", err)
		return toHTTPError(err)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logout successful"})
}

// CSRFToken hands the double-submit token to clients that can't read cookies.
func (h *AuthHTTP) CSRFToken(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"csrf_token": csrf.Token(c)})
}
