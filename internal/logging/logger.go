package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
)

// NewLogger creates a structured zerolog.Logger carrying the deployment
// environment as a base field.
func NewLogger(cfg *config.Config) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if cfg.Environment != "" {
		ctx = ctx.Str("environment", cfg.Environment)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
