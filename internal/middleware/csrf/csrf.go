// Package csrf implements double-submit cookie protection: the token lives in
// a cookie readable by the frontend, which echoes it back in a header on every
// state-changing request.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authservice/internal/config"
	"github.com/Skotchmaster/authservice/internal/logging"
)

const ContextKey = "csrf_token"

type Config struct {
	CookieName string
	HeaderName string

	CookiePath string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	// TrustedOrigins are scheme://host values accepted in Origin or Referer
	// in addition to the request's own origin.
	TrustedOrigins []string

	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName: "csrftoken",
		HeaderName: "X-CSRFToken",
		CookiePath: "/",
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     365 * 24 * time.Hour,
	}
}

// RefreshPath is exempt: authclient refreshes server to server and holds no
// CSRF cookie. The endpoint only rotates the caller's own access cookie.
const RefreshPath = "/auth/refresh-token"

// FromAppConfig maps the JWT_CSRF_* settings onto a middleware config.
func FromAppConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	if c.CSRFCookieName != "" {
		cfg.CookieName = c.CSRFCookieName
	}
	if c.CSRFHeaderName != "" {
		cfg.HeaderName = c.CSRFHeaderName
	}
	cfg.Secure = c.CookieSecure
	cfg.SameSite = c.SameSite()
	cfg.TrustedOrigins = c.CSRFTrustedOrigins
	cfg.SkipPaths = []string{RefreshPath}
	return cfg
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	trusted := make(map[string]struct{}, len(cfg.TrustedOrigins))
	for _, o := range cfg.TrustedOrigins {
		trusted[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			token := readCookie(req, cfg.CookieName)
			if token == "" {
				var err error
				token, err = newToken(32)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
				}
				setCSRFCookie(c, cfg, token)
			}
			c.Set(ContextKey, token)

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}

			l := logging.FromContext(req.Context()).With("handler", "csrf")

			if !originAllowed(req, trusted) {
				l.Warn("csrf_rejected", "status", 403, "reason", "untrusted origin")
				return echo.NewHTTPError(http.StatusForbidden, "CSRF failed: origin checking failed")
			}

			provided := req.Header.Get(cfg.HeaderName)
			if subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				l.Warn("csrf_rejected", "status", 403, "reason", "token mismatch")
				return echo.NewHTTPError(http.StatusForbidden, "CSRF failed: token missing or incorrect")
			}

			return next(c)
		}
	}
}

// Token returns the CSRF token the middleware attached to the request.
func Token(c echo.Context) string {
	s, _ := c.Get(ContextKey).(string)
	return s
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setCSRFCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: cfg.SameSite,
	})
}

func readCookie(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// originAllowed accepts requests without Origin and Referer (non-browser
// clients) and otherwise requires the same origin or a trusted one.
func originAllowed(r *http.Request, trusted map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := trusted[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
