package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/authservice/internal/config"
)

func newEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, Token(c)) }
	e.GET("/auth/csrf", ok)
	e.POST("/auth/login", ok)
	e.POST("/hooks/skip", ok)
	e.POST(RefreshPath, ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/csrf", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrftoken" {
			assert.False(t, c.HttpOnly)
			assert.Equal(t, c.Value, rec.Header().Get("X-CSRFToken"))
			assert.Equal(t, c.Value, rec.Body.String())
			return c
		}
	}
	t.Fatal("csrf cookie not set")
	return nil
}

func TestMiddleware_SafeMethodIssuesToken(t *testing.T) {
	e := newEcho(DefaultConfig())
	cookie := issueToken(t, e)
	assert.Len(t, cookie.Value, 43)
}

func TestMiddleware_UnsafeMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrustedOrigins = []string{"http://frontend.test"}
	cfg.SkipPaths = []string{"/hooks/skip"}
	e := newEcho(cfg)
	cookie := issueToken(t, e)

	tests := []struct {
		name   string
		path   string
		cookie bool
		header string
		origin string
		want   int
	}{
		{name: "matching header", path: "/auth/login", cookie: true, header: cookie.Value, want: http.StatusOK},
		{name: "trusted origin", path: "/auth/login", cookie: true, header: cookie.Value, origin: "http://frontend.test", want: http.StatusOK},
		{name: "same origin", path: "/auth/login", cookie: true, header: cookie.Value, origin: "http://example.com", want: http.StatusOK},
		{name: "untrusted origin", path: "/auth/login", cookie: true, header: cookie.Value, origin: "http://evil.test", want: http.StatusForbidden},
		{name: "missing header", path: "/auth/login", cookie: true, want: http.StatusForbidden},
		{name: "wrong header", path: "/auth/login", cookie: true, header: "nope", want: http.StatusForbidden},
		{name: "no cookie", path: "/auth/login", header: cookie.Value, want: http.StatusForbidden},
		{name: "skipped path", path: "/hooks/skip", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.cookie {
				req.AddCookie(cookie)
			}
			if tt.header != "" {
				req.Header.Set("X-CSRFToken", tt.header)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(&config.Config{
		CSRFCookieName:     "xsrf",
		CSRFHeaderName:     "X-XSRF-Token",
		CookieSecure:       true,
		CookieSameSite:     "strict",
		CSRFTrustedOrigins: []string{"https://shop.example.com"},
	})
	assert.Equal(t, "xsrf", cfg.CookieName)
	assert.Equal(t, "X-XSRF-Token", cfg.HeaderName)
	assert.True(t, cfg.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cfg.SameSite)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.TrustedOrigins)
	assert.Equal(t, []string{RefreshPath}, cfg.SkipPaths)

	e := newEcho(FromAppConfig(&config.Config{}))

	req := httptest.NewRequest(http.MethodPost, RefreshPath, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "refresh needs no csrf token")

	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
