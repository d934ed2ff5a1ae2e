package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pageza/recipe-site/backend/config"
)

// New builds the application logger. Production gets JSON output at info level,
// every other environment the human-readable development encoder at debug level.
func New(env config.Environment) (*zap.Logger, error) {
	var cfg zap.Config
	if env == config.Production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.With(zap.String("env", string(env))), nil
}
