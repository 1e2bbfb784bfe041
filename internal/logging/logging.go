// Package logging provides the process-wide zap logger. It is initialized
// exactly once at startup; components log through L rather than configuring
// their own loggers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the shared logger. It defaults to a no-op logger so packages can log
// safely before Init runs (e.g., from tests).
var L = zap.NewNop()

// Init builds the global logger. development selects a human-readable console
// encoder; production uses JSON.
func Init(development bool) error {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		logger, err = cfg.Build()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	L = logger
	return nil
}

// Sync flushes buffered log entries. Safe to call on the no-op logger.
func Sync() {
	_ = L.Sync()
}
