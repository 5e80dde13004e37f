// Package logging builds the process-wide zap logger. Every component that
// logs receives a *zap.SugaredLogger explicitly; nothing in this module reads
// logger state from package globals.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a sugared logger for the given mode. "development" (the
// default) uses the human-readable console encoder; "prod"/"production"
// emits JSON. The returned Sync func flushes buffered entries and is safe
// to call on process exit.
func New(mode string) (*zap.SugaredLogger, func(), error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	sync := func() { _ = logger.Sync() }
	return logger.Sugar(), sync, nil
}

// Nop returns a logger that discards everything. Used by tests and as a
// safe default for components constructed without a logger.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
