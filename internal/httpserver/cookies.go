package httpserver

import (
	"net/http"
	"time"

	"github.com/Skotchmaster/authservice/internal/config"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Cookies builds the auth cookies. Secure and SameSite come from config so
// local http development works with JWT_COOKIE_SECURE=false.
type Cookies struct {
	Secure   bool
	SameSite http.SameSite
	Path     string
}

func NewCookies(cfg *config.Config) Cookies {
	return Cookies{Secure: cfg.CookieSecure, SameSite: cfg.SameSite(), Path: "/"}
}

func (c Cookies) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

func (c Cookies) Create(name, value string, expires time.Time, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.path(),
		Expires:  expires,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (c Cookies) Delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     c.path(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
