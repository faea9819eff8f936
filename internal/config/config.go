package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is built once at startup and passed to every component that needs it.
// Nothing mutates it after Load returns.
type Config struct {
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL"   envDefault:"info"`

	DBDriver     string        `env:"DB_DRIVER"     envDefault:"postgres"`
	DatabaseURL  string        `env:"DATABASE_URL,required,notEmpty"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TOKEN_TTL"  envDefault:"300s"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TOKEN_TTL" envDefault:"86400s"`
	CookieSameSite   string        `env:"JWT_COOKIE_SAMESITE"   envDefault:"lax"`
	CookieSecure     bool          `env:"JWT_COOKIE_SECURE"     envDefault:"false"`
	BlacklistEnabled bool          `env:"JWT_BLACKLIST_ENABLED" envDefault:"true"`
	BlacklistTTL     time.Duration `env:"JWT_BLACKLIST_TTL"     envDefault:"86400s"`

	CSRFProtection     bool     `env:"JWT_CSRF_PROTECTION"  envDefault:"true"`
	CSRFHeaderName     string   `env:"JWT_CSRF_HEADER_NAME" envDefault:"X-CSRFToken"`
	CSRFCookieName     string   `env:"JWT_CSRF_COOKIE_NAME" envDefault:"csrftoken"`
	CSRFTrustedOrigins []string `env:"CSRF_TRUSTED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	EmailVerificationTTL time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"24h"`
	PasswordResetTTL     time.Duration `env:"PASSWORD_RESET_TTL"     envDefault:"6h"`
	FrontendURL          string        `env:"FRONTEND_URL"           envDefault:"http://localhost:3000"`
	EmailFrom            string        `env:"EMAIL_FROM"             envDefault:"no-reply@localhost"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS"     envSeparator:","`
	NotifyTopic     string   `env:"NOTIFY_TOPIC"      envDefault:"email_events"`
	UserEventsTopic string   `env:"USER_EVENTS_TOPIC" envDefault:"user_events"`

	BcryptCost    int           `env:"BCRYPT_COST"    envDefault:"10"`
	PurgeInterval time.Duration `env:"PURGE_INTERVAL" envDefault:"1h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.CSRFTrustedOrigins = compact(cfg.CSRFTrustedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is empty"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, fmt.Errorf("access TTL %s must be shorter than refresh TTL %s", c.AccessTTL, c.RefreshTTL))
	}
	if _, ok := sameSiteModes[strings.ToLower(c.CookieSameSite)]; !ok {
		errs = append(errs, fmt.Errorf("unknown JWT_COOKIE_SAMESITE %q", c.CookieSameSite))
	}
	if strings.EqualFold(c.CookieSameSite, "none") && !c.CookieSecure {
		errs = append(errs, errors.New("JWT_COOKIE_SAMESITE=none requires JWT_COOKIE_SECURE=true"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

var sameSiteModes = map[string]http.SameSite{
	"lax":    http.SameSiteLaxMode,
	"strict": http.SameSiteStrictMode,
	"none":   http.SameSiteNoneMode,
}

func (c *Config) SameSite() http.SameSite {
	if m, ok := sameSiteModes[strings.ToLower(c.CookieSameSite)]; ok {
		return m
	}
	return http.SameSiteLaxMode
}

func (c *Config) SigningSecret() []byte {
	return []byte(c.JWTSecret)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
