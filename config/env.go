package config

import (
	"os"
	"strings"
)

// Environment selects config requirements and the log format.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads RECIPE_ENV, falling back to ENV. A CI=true runner always
// counts as CI so pipelines never need production secrets.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	env := os.Getenv("RECIPE_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	switch Environment(strings.ToLower(strings.TrimSpace(env))) {
	case Production, "prod":
		return Production
	case Test:
		return Test
	default:
		return Development
	}
}
