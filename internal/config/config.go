package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrSecretRequired is returned when SESSION_SECRET is unset. The server
// refuses to fall back to a baked-in secret.
var ErrSecretRequired = errors.New("config: SESSION_SECRET must be set")

type Config struct {
	Addr          string
	SessionSecret string
	SecureCookies bool
	TemplatesDir  string
	StaticDir     string
	Database      DatabaseConfig
	Logging       LoggingConfig
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type LoggingConfig struct {
	Level       string
	Encoding    string
	Development bool
}

// Load reads configuration from the environment, after loading a local .env
// file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if secret == "" {
		return nil, ErrSecretRequired
	}

	host := envOrDefault("HOST", "127.0.0.1")
	port := envOrDefault("PORT", "8080")

	return &Config{
		Addr:          host + ":" + port,
		SessionSecret: secret,
		SecureCookies: os.Getenv("APP_HTTPS") == "1",
		TemplatesDir:  envOrDefault("TEMPLATES_DIR", "web/templates"),
		StaticDir:     envOrDefault("STATIC_DIR", "web/static"),
		Database: DatabaseConfig{
			DSN:             databaseDSN(),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:       strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			Encoding:    strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
			Development: os.Getenv("LOG_DEVELOPMENT") == "1",
		},
	}, nil
}

// databaseDSN assembles the lib/pq DSN. Priority: DATABASE_URL >
// POSTGRES_DSN > discrete POSTGRES_* variables.
func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return dsn
	}

	parts := []string{
		"host=" + envOrDefault("POSTGRES_HOST", "127.0.0.1"),
		"port=" + envOrDefault("POSTGRES_PORT", "5432"),
		"user=" + envOrDefault("POSTGRES_USER", "postgres"),
		"dbname=" + envOrDefault("POSTGRES_DB", "contactdesk"),
		"sslmode=" + envOrDefault("POSTGRES_SSLMODE", "disable"),
	}
	if pass := os.Getenv("POSTGRES_PASSWORD"); pass != "" {
		parts = append(parts, "password="+pass)
	}
	return strings.Join(parts, " ")
}

func envOrDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
