package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dashboard-api/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "JWT_SECRET", "DATABASE", "CLIENT_URL", "NODE_ENV",
		"DASHBOARD_SERVER_ADDR", "DASHBOARD_AUTH_JWT_SECRET", "DASHBOARD_AUTH_TOKEN_TTL",
		"DASHBOARD_CORS_ALLOWED_ORIGINS", "DASHBOARD_CONTENT_REQUIRE_AUTH", "DASHBOARD_DATABASE_DRIVER",
		"DASHBOARD_SERVER_ENV", "DASHBOARD_SERVER_TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "legacy-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8005", cfg.Server.Addr)
	assert.Equal(t, EnvProduction, cfg.Server.Env)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Content.RequireAuth)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPrefixedOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("DASHBOARD_AUTH_JWT_SECRET", "prefixed-secret")
	t.Setenv("DASHBOARD_AUTH_TOKEN_TTL", "1h")
	t.Setenv("DASHBOARD_CORS_ALLOWED_ORIGINS", "https://a.example.com/, http://localhost:5173")
	t.Setenv("DASHBOARD_CONTENT_REQUIRE_AUTH", "true")
	t.Setenv("NODE_ENV", "Development")
	t.Setenv("PORT", "9000")
	t.Setenv("DASHBOARD_SERVER_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.0/8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prefixed-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example.com", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Content.RequireAuth)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, cfg.Server.TrustedProxies)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Server.Env = EnvProduction
		c.Database.Driver = DriverSQLite
		c.Database.Path = "data/test.db"
		c.Auth.JWTSecret = "secret"
		c.Auth.TokenTTL = time.Hour
		c.Auth.BcryptCost = bcrypt.MinCost
		return c
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"missing secret": func(c *Config) { c.Auth.JWTSecret = "  " },
		"zero ttl":       func(c *Config) { c.Auth.TokenTTL = 0 },
		"bcrypt cost":    func(c *Config) { c.Auth.BcryptCost = 99 },
		"unknown driver": func(c *Config) { c.Database.Driver = "postgres" },
		"mongo no uri":   func(c *Config) { c.Database.Driver = DriverMongo },
		"sqlite no path": func(c *Config) { c.Database.Path = "" },
		"unknown env":    func(c *Config) { c.Server.Env = "staging" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), domain.ErrConfiguration)
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"https://a.com", "https://b.com", "https://c.com"},
		splitOrigins([]string{"https://a.com/,https://b.com", " ", "https://c.com"}),
	)
	assert.Nil(t, splitOrigins(nil))
}
