package config

import (
	"os"
	"strconv"
)

// Config autoshop-admin (HTTP API) configuration
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Auth struct {
		// JWTSecret signs HS256 access tokens. Must be overridden in production.
		JWTSecret string
		// TokenTTLMinutes bounds both the JWT expiry and the redis session TTL.
		TokenTTLMinutes int
	}
	SMS SMSConfig
	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig PostgreSQL connection settings.
// The configured user must be a dedicated least-privilege role; startup
// refuses roles that can bypass row-level security.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// SMSConfig outbound SMS gateway settings. When Enabled is false the
// notifier is a no-op and nothing leaves the process.
type SMSConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Sender  string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "autoshop_app")
	cfg.Database.Password = getEnv("DB_PASSWORD", "autoshop_app")
	cfg.Database.Database = getEnv("DB_NAME", "autoshop")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", "dev-only-secret")
	cfg.Auth.TokenTTLMinutes = parseInt(getEnv("AUTH_TOKEN_TTL_MINUTES", "480"), 480)

	cfg.SMS.Enabled = getEnv("SMS_ENABLED", "false") == "true"
	cfg.SMS.BaseURL = getEnv("SMS_BASE_URL", "")
	cfg.SMS.APIKey = getEnv("SMS_API_KEY", "")
	cfg.SMS.Sender = getEnv("SMS_SENDER", "autoshop")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
