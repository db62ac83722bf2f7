// Package obslog wires the application's zap logger: the production JSON
// logger by default, or the development console logger under --verbose.
// Stages that log receive the *zap.Logger at construction rather than
// writing to stdout directly.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the production logger: JSON encoding, ISO8601 timestamps.
func New() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// NewDevelopment builds the human-readable console logger used with
// --verbose: colorized levels, caller info, no sampling.
func NewDevelopment() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// ForMode returns the development logger when verbose is set, otherwise
// the production logger.
func ForMode(verbose bool) *zap.Logger {
	if verbose {
		return NewDevelopment()
	}
	return New()
}
