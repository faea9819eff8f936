package httpserver

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authservice/internal/repo"
	"github.com/Skotchmaster/authservice/internal/service"
)

// toHTTPError maps service and store errors onto status codes. Messages for
// token failures stay generic.
func toHTTPError(err error) *echo.HTTPError {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return echo.NewHTTPError(http.StatusBadRequest, verrs)
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid input")
	case service.IsValidation(err), errors.Is(err, service.ErrInvalidOrExpired):
		return echo.NewHTTPError(http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountDisabled),
		errors.Is(err, service.ErrEmailNotVerified):
		return echo.NewHTTPError(http.StatusUnauthorized, rootMessage(err))
	case errors.Is(err, service.ErrMissingToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	case service.IsAuthFailure(err):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, repo.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

var publicErrors = []error{
	service.ErrPasswordMismatch,
	service.ErrEmailTaken,
	service.ErrInvalidOrExpired,
	service.ErrInvalidCredentials,
	service.ErrAccountDisabled,
	service.ErrEmailNotVerified,
}

// rootMessage returns the sentinel's text without any wrapped detail.
func rootMessage(err error) string {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return http.StatusText(http.StatusBadRequest)
}
