// Package logging builds the zap logger shared by the GUI and the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr at the given level.
func New(level string) (*zap.Logger, error) {
	lower := strings.ToLower(level)
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	var zapLevel zapcore.Level
	switch lower {
	case "debug":
		cfg.Development = true
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

// Func adapts a zap logger to the plain func(string) loggers the other
// packages accept. Messages are logged at info level under name.
func Func(l *zap.Logger, name string) func(message string) {
	sugar := l.Named(name).Sugar()
	return func(message string) {
		sugar.Info(message)
	}
}

// Tee returns a logger func that forwards every message to each non-nil fn.
func Tee(fns ...func(string)) func(message string) {
	return func(message string) {
		for _, fn := range fns {
			if fn != nil {
				fn(message)
			}
		}
	}
}
