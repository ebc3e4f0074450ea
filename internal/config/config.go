package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"dashboard-api/internal/domain"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr           string
		Env            string
		TrustedProxies []string `mapstructure:"trusted_proxies"`
	}
	Database struct {
		Driver  string
		Path    string
		URI     string
		Name    string
		Timeout time.Duration
	}
	Auth struct {
		JWTSecret  string        `mapstructure:"jwt_secret"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
		BcryptCost int           `mapstructure:"bcrypt_cost"`
	}
	Content struct {
		RequireAuth bool `mapstructure:"require_auth"`
	}
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	Archive struct {
		Bucket   string
		Prefix   string
		Region   string
		Endpoint string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level  string
		Format string
	}
}

// legacyEnv maps config keys to the plain variable names used by older deployments.
var legacyEnv = map[string]string{
	"auth.jwt_secret":      "JWT_SECRET",
	"database.uri":         "DATABASE",
	"cors.allowed_origins": "CLIENT_URL",
	"server.env":           "NODE_ENV",
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envKey := "DASHBOARD_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("server.addr", "0.0.0.0:8005")
	v.SetDefault("server.env", EnvProduction)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/dashboard.db")
	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "dashboard")
	v.SetDefault("database.timeout", "30s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("content.require_auth", false)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", "15m")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "deleted-texts")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// PORT wins over the default listen address, as on hosted platforms.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("DASHBOARD_SERVER_ADDR") == "" {
		cfg.Server.Addr = "0.0.0.0:" + port
	}
	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)
	cfg.Server.Env = strings.ToLower(strings.TrimSpace(cfg.Server.Env))

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return domain.Configuration("auth jwt secret is required (set DASHBOARD_AUTH_JWT_SECRET or JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return domain.Configuration("auth token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return domain.Configuration("auth bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return domain.Configuration("database path is required for the sqlite driver")
		}
	case DriverMongo:
		if strings.TrimSpace(c.Database.URI) == "" {
			return domain.Configuration("database uri is required for the mongo driver (set DATABASE)")
		}
	default:
		return domain.Configuration("unknown database driver %q", c.Database.Driver)
	}
	if c.Server.Env != EnvDevelopment && c.Server.Env != EnvProduction {
		return domain.Configuration("server env must be %q or %q", EnvDevelopment, EnvProduction)
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Server.Env == EnvDevelopment
}

// splitList accepts both list values and a single comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func splitOrigins(in []string) []string {
	out := splitList(in)
	for i := range out {
		out[i] = strings.TrimRight(out[i], "/")
	}
	return out
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
