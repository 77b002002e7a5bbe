// Package logging builds the zap logger used by the docfill CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-docfill/internal/config"
)

// New builds a logger from the logging section. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil && cfg.Level != "" {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if cfg.Level == "" {
		level = zapcore.InfoLevel
	}
	if verbose || cfg.Verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Encoding {
	case "", "json":
	case "console":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("logging: unknown encoding %q", cfg.Encoding)
	}
	if len(cfg.OutputPaths) > 0 {
		zcfg.OutputPaths = cfg.OutputPaths
	}
	zcfg.DisableStacktrace = !verbose

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger.Named("docfill"), nil
}
