package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/permissions"
	"github.com/Skotchmaster/authservice/internal/service"
	"github.com/Skotchmaster/authservice/internal/transport"
)

const resetRequestedMessage = "If this email exists in our system, you will receive a reset link"

type AccountHTTP struct {
	Svc     *service.AccountService
	Cookies Cookies
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Password != req.ConfirmPassword {
		return toHTTPError(service.ErrPasswordMismatch)
	}
	req.Email = transport.Normalize(req.Email)
	if err := req.Validate(); err != nil {
		return toHTTPError(err)
	}

	_, err := h.Svc.Register(ctx, req.Email, req.Password, req.ConfirmPassword)
	if err != nil && !errors.Is(err, service.ErrNotificationFailed) {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, transport.MessageResponse{
		Message: "Registration successful. Please check your email to verify your account.",
	})
}

func (h *AccountHTTP) VerifyEmail(c echo.Context) error {
	if err := h.Svc.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Email successfully verified"})
}

func (h *AccountHTTP) RequestPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "password_reset_request")

	var req transport.PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("password_reset_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = transport.Normalize(req.Email)
	if err := req.Validate(); err != nil {
		return toHTTPError(err)
	}

	err := h.Svc.RequestPasswordReset(ctx, req.Email)
	if err != nil && !errors.Is(err, service.ErrNotificationFailed) {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: resetRequestedMessage})
}

func (h *AccountHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "password_reset_confirm")

	var req transport.PasswordResetConfirm
	if err := c.Bind(&req); err != nil {
		l.Warn("password_reset_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.NewPassword != req.ConfirmPassword {
		return toHTTPError(service.ErrPasswordMismatch)
	}
	if err := req.Validate(); err != nil {
		return toHTTPError(err)
	}

	presented := service.Presented{
		AccessToken:  cookieValue(c.Request(), AccessCookie),
		RefreshToken: cookieValue(c.Request(), RefreshCookie),
	}
	if err := h.Svc.ResetPassword(ctx, c.Param("token"), req.NewPassword, req.ConfirmPassword, presented); err != nil {
		return toHTTPError(err)
	}

	c.SetCookie(h.Cookies.Delete(AccessCookie))
	c.SetCookie(h.Cookies.Delete(RefreshCookie))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password successfully reset"})
}

func (h *AccountHTTP) Me(c echo.Context) error {
	acc := currentAccount(c)
	if acc == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(acc))
}

func (h *AccountHTTP) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if !permissions.IsOwnerOrAdmin(currentAccount(c), id) {
		return echo.NewHTTPError(http.StatusForbidden, "permission denied")
	}

	acc, err := h.Svc.GetAccount(c.Request().Context(), id)
	if errors.Is(err, service.ErrAccountNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(acc))
}

func (h *AccountHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	actor := currentAccount(c)
	if !permissions.IsOwnerOrAdmin(actor, id) {
		l.Warn("user_delete_forbidden", "status", 403)
		return echo.NewHTTPError(http.StatusForbidden, "permission denied")
	}

	err = h.Svc.DeleteAccount(ctx, id)
	if errors.Is(err, service.ErrAccountNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return toHTTPError(err)
	}

	if actor.ID == id {
		c.SetCookie(h.Cookies.Delete(AccessCookie))
		c.SetCookie(h.Cookies.Delete(RefreshCookie))
	}
	l.Info("user_deleted", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHTTP) SetActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_set_active")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	var req transport.SetActiveRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_active_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return toHTTPError(err)
	}

	acc, err := h.Svc.SetActive(ctx, id, *req.IsActive)
	if errors.Is(err, service.ErrAccountNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(acc))
}
