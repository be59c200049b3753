package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ErrMissingJWTSecret is returned when JWT_SECRET is unset or blank.
var ErrMissingJWTSecret = errors.New("config: JWT_SECRET must be set")

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// ItemsPublicRead lets anonymous clients list items.
	ItemsPublicRead bool `env:"ITEMS_PUBLIC_READ, default=false"`

	// TrustProxyHeaders reads the client IP from X-Forwarded-For. Enable
	// only behind a reverse proxy.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS, default=false"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=168h"`

	// CookieSecure is nil when unset so the default can follow ENV.
	CookieSecure *bool `env:"COOKIE_SECURE, noinit"`

	AllowAdminSelfRegistration bool `env:"ALLOW_ADMIN_SELF_REGISTRATION, default=false"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT,  default=10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=inventory"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SecureCookies reports whether the session cookie gets the Secure flag.
func (c *Config) SecureCookies() bool {
	if c.Auth.CookieSecure != nil {
		return *c.Auth.CookieSecure
	}
	return c.IsProduction()
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		if errors.Is(err, envconfig.ErrMissingRequired) {
			return nil, fmt.Errorf("%w: %v", ErrMissingJWTSecret, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.LoginRateWindow <= 0 {
		return fmt.Errorf("config: LOGIN_RATE_WINDOW must be positive, got %s", c.Auth.LoginRateWindow)
	}
	return nil
}
