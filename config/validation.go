package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequireDBPassword bool
	RequireJWTSecret  bool
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI: {
			RequireDBPassword: true,
			RequireJWTSecret:  true,
		},
		Production: {
			RequireDBPassword: true,
			RequireJWTSecret:  true,
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	reqs := requirements[GetEnvironment()]

	var errs []ValidationError

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "is required for postgres"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "is required for postgres"})
		}
		if reqs.RequireDBPassword && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"db_password", "secret is required"})
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" || (reqs.RequireJWTSecret && len(cfg.JWTSecret) < 16) {
		errs = append(errs, ValidationError{"jwt_secret", "secret is required (at least 16 characters outside development)"})
	}

	switch cfg.StorageBackend {
	case "local":
		if cfg.MediaRoot == "" {
			errs = append(errs, ValidationError{"MEDIA_ROOT", "is required for local storage"})
		}
	case "s3":
		if cfg.S3BucketName == "" {
			errs = append(errs, ValidationError{"S3_BUCKET_NAME", "is required for s3 storage"})
		}
	default:
		errs = append(errs, ValidationError{"STORAGE_BACKEND", fmt.Sprintf("unsupported backend %q", cfg.StorageBackend)})
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
