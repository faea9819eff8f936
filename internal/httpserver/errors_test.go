package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/authservice/internal/repo"
	"github.com/Skotchmaster/authservice/internal/service"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  any
	}{
		{name: "mismatch", err: service.ErrPasswordMismatch, wantCode: http.StatusBadRequest, wantMsg: "passwords do not match"},
		{name: "wrapped email taken", err: fmt.Errorf("register: %w", service.ErrEmailTaken), wantCode: http.StatusBadRequest, wantMsg: "email already registered"},
		{name: "wrapped validation", err: fmt.Errorf("%w: email: bad", service.ErrValidation), wantCode: http.StatusBadRequest, wantMsg: "invalid input"},
		{name: "invalid or expired", err: service.ErrInvalidOrExpired, wantCode: http.StatusBadRequest, wantMsg: "invalid or expired token"},
		{name: "credentials", err: service.ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantMsg: "incorrect email or password"},
		{name: "disabled", err: service.ErrAccountDisabled, wantCode: http.StatusUnauthorized, wantMsg: "user account is disabled"},
		{name: "blacklisted", err: service.ErrBlacklistedToken, wantCode: http.StatusUnauthorized, wantMsg: "invalid or expired token"},
		{name: "missing", err: service.ErrMissingToken, wantCode: http.StatusUnauthorized},
		{name: "store", err: fmt.Errorf("%w: dial tcp", repo.ErrStoreUnavailable), wantCode: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantMsg: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := toHTTPError(tt.err)
			assert.Equal(t, tt.wantCode, he.Code)
			if tt.wantMsg != nil {
				assert.Equal(t, tt.wantMsg, he.Message)
			}
		})
	}
}

func TestCookies(t *testing.T) {
	c := Cookies{Secure: true, SameSite: http.SameSiteStrictMode}

	ck := c.Create(AccessCookie, "v", time.Time{}, time.Minute)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 60, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)

	del := c.Delete(RefreshCookie)
	assert.Equal(t, -1, del.MaxAge)
	assert.Empty(t, del.Value)
	assert.True(t, del.HttpOnly)
}
