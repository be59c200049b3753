package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadWith(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.LoginRateLimit)
	assert.Equal(t, time.Minute, cfg.Auth.LoginRateWindow)
	assert.False(t, cfg.Auth.AllowAdminSelfRegistration)
	assert.False(t, cfg.ItemsPublicRead)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Equal(t, "inventory", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.SecureCookies())
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := load(t, map[string]string{})
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_BlankSecret(t *testing.T) {
	_, err := load(t, map[string]string{"JWT_SECRET": "   "})
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"JWT_SECRET":                    "s3cret",
		"PORT":                          "9000",
		"TOKEN_TTL":                     "2h",
		"ALLOW_ADMIN_SELF_REGISTRATION": "true",
		"ITEMS_PUBLIC_READ":             "true",
		"TRUST_PROXY_HEADERS":           "true",
		"LOGIN_RATE_LIMIT":              "3",
		"MONGO_DB":                      "stock",
		"REDIS_PASSWORD":                "pw",
	})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.AllowAdminSelfRegistration)
	assert.True(t, cfg.ItemsPublicRead)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, 3, cfg.Auth.LoginRateLimit)
	assert.Equal(t, "stock", cfg.Mongo.Database)
	assert.Equal(t, "pw", cfg.Redis.Password)
}

func TestLoad_NonPositiveTTL(t *testing.T) {
	_, err := load(t, map[string]string{"JWT_SECRET": "s3cret", "TOKEN_TTL": "0s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_TTL")
}

func TestSecureCookies(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s", "ENV": "production"})
	require.NoError(t, err)
	assert.True(t, cfg.SecureCookies(), "production defaults to secure cookies")

	cfg, err = load(t, map[string]string{"JWT_SECRET": "s", "ENV": "production", "COOKIE_SECURE": "false"})
	require.NoError(t, err)
	assert.False(t, cfg.SecureCookies(), "explicit setting wins")

	cfg, err = load(t, map[string]string{"JWT_SECRET": "s", "COOKIE_SECURE": "true"})
	require.NoError(t, err)
	assert.True(t, cfg.SecureCookies())
}
