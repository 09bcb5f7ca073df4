package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens issued by the hosted identity provider
	AuthJWTSecret string
	AuthJWKSURL   string

	// Identity provider backend API
	IdentityAPIURL    string
	IdentityAPIKey    string
	IdentityTimeout   time.Duration
	IdentityCacheTTL  time.Duration
	IdentityCacheSize int

	// Break-glass super-admins
	SuperAdminEmails  []string
	SuperAdminUserIDs []string

	// Redis (optional, enables cross-instance conflict locks)
	RedisURL string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	LogRetentionDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "linkfro"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthJWKSURL:   getEnv("AUTH_JWKS_URL", ""),

		IdentityAPIURL:    getEnv("IDENTITY_API_URL", "https://api.clerk.com/v1"),
		IdentityAPIKey:    getEnv("IDENTITY_API_KEY", ""),
		IdentityTimeout:   parseDuration(getEnv("IDENTITY_TIMEOUT", "5s"), 5*time.Second),
		IdentityCacheTTL:  parseDuration(getEnv("IDENTITY_CACHE_TTL", "5m"), 5*time.Minute),
		IdentityCacheSize: parseInt(getEnv("IDENTITY_CACHE_SIZE", "1024"), 1024),

		SuperAdminEmails:  ParseCSV(getEnv("SUPERADMIN_EMAILS", "")),
		SuperAdminUserIDs: ParseCSV(getEnv("SUPERADMIN_USER_IDS", "")),

		RedisURL: getEnv("REDIS_URL", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ParseCSV splits a comma-separated list, trimming blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
