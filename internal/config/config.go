package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pizzastore/api/internal/enum"
)

// DefaultJWTSecret is only meant for local development.
const DefaultJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	TokenTTL         time.Duration
	StatementTimeout time.Duration
	AllowedOrigins   []string
	CancelPolicy     string
	LogLevel         string
	MigrateOnStart   bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	tokenTTL, err := getDuration("TOKEN_TTL", 45*time.Minute)
	if err != nil {
		return nil, err
	}
	stmtTimeout, err := getDuration("STATEMENT_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	migrateOnStart, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIGRATE_ON_START: %w", err)
	}

	policy := getEnv("CANCEL_POLICY", enum.CancelPolicyAnyActive)
	if policy != enum.CancelPolicyAnyActive && policy != enum.CancelPolicyPendingOnly {
		return nil, fmt.Errorf("invalid CANCEL_POLICY %q: want %s or %s",
			policy, enum.CancelPolicyAnyActive, enum.CancelPolicyPendingOnly)
	}

	return &Config{
		Port:             getEnv("PORT", "8081"),
		DatabaseURL:      databaseURL(),
		JWTSecret:        getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:         tokenTTL,
		StatementTimeout: stmtTimeout,
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		CancelPolicy:     policy,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MigrateOnStart:   migrateOnStart,
	}, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the
// discrete DB_* variables.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("DB_USER", "pizza"), getEnv("DB_PASSWORD", "pizza")),
		Host:     getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:     "/" + getEnv("DB_NAME", "pizzastore"),
		RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
