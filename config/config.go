package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Media storage configuration
	StorageBackend string
	MediaRoot      string
	MediaURL       string
	S3BucketName   string
	AWSRegion      string

	// RequireUniqueEmail rejects registrations whose email is already in use.
	RequireUniqueEmail bool
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		loadCIConfig(cfg)
	case Development, Test:
		loadDevConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig loads configuration for CI from environment variables only
func loadCIConfig(cfg *Config) {
	loadCommon(cfg, os.Getenv)
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("TEST_REDIS_URL")
}

// loadDevConfig loads configuration for development, preferring env vars over secrets
// and falling back to local defaults so the server starts on a bare checkout.
func loadDevConfig(cfg *Config) {
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return readSecret(strings.ToLower(key))
	}
	loadCommon(cfg, lookup)

	cfg.ServerPort = orDefault(cfg.ServerPort, "8080")
	cfg.ServerHost = orDefault(cfg.ServerHost, "localhost")
	cfg.DBDriver = orDefault(cfg.DBDriver, "sqlite")
	cfg.SQLitePath = orDefault(cfg.SQLitePath, "data/recipes.db")
	cfg.JWTSecret = orDefault(cfg.JWTSecret, "dev-secret-change-me")
	cfg.MediaRoot = orDefault(cfg.MediaRoot, "media")
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:5173"}
	}
}

// loadProdConfig loads configuration for production; secrets only come from Docker secrets
func loadProdConfig(cfg *Config) {
	loadCommon(cfg, os.Getenv)
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	if url := readSecret("redis_url"); url != "" {
		cfg.RedisURL = url
	}
}

func loadCommon(cfg *Config, get func(string) string) {
	cfg.ServerPort = get("SERVER_PORT")
	cfg.ServerHost = get("SERVER_HOST")
	cfg.CORSOrigins = splitList(get("CORS_ORIGINS"))

	cfg.DBDriver = orDefault(get("DB_DRIVER"), "postgres")
	cfg.DBHost = get("DB_HOST")
	cfg.DBPort = orDefault(get("DB_PORT"), "5432")
	cfg.DBUser = get("DB_USER")
	cfg.DBPassword = get("DB_PASSWORD")
	cfg.DBName = get("DB_NAME")
	cfg.DBSSLMode = orDefault(get("DB_SSL_MODE"), "disable")
	cfg.SQLitePath = get("SQLITE_PATH")

	cfg.RedisHost = get("REDIS_HOST")
	cfg.RedisPort = get("REDIS_PORT")
	cfg.RedisPassword = get("REDIS_PASSWORD")
	cfg.RedisURL = get("REDIS_URL")
	cfg.RedisDB = 0 // This is a constant, not a secret

	cfg.JWTSecret = get("JWT_SECRET")
	cfg.TokenTTL = 24 * time.Hour
	if ttl := get("TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
		}
	}

	cfg.StorageBackend = orDefault(get("STORAGE_BACKEND"), "local")
	cfg.MediaRoot = get("MEDIA_ROOT")
	cfg.MediaURL = orDefault(get("MEDIA_URL"), "/media")
	cfg.S3BucketName = get("S3_BUCKET_NAME")
	cfg.AWSRegion = get("AWS_REGION")

	cfg.RequireUniqueEmail = true
	if v := get("REQUIRE_UNIQUE_EMAIL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequireUniqueEmail = b
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
