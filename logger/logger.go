package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Log is the process-wide logger. It discards everything until Initialize is called.
var Log *zap.Logger = zap.NewNop()

// Initialize builds the global logger for the given level ("debug", "info", "warn", "error")
// and environment. Development gets the human-readable console encoder, everything else JSON.
func Initialize(level, env string) error {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = logLevel

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Log = built
	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Log.Sync()
}
