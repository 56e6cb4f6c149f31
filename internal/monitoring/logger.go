// Package monitoring holds the diagnostic logger shared by the evaluator
// packages.
package monitoring

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger or UseZap. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// UseZap routes Logf through a sugared zap logger. Messages prefixed with
// "WARNING:" are emitted at warn level, everything else at info.
func UseZap(l *zap.Logger) {
	if l == nil {
		SetLogger(nil)
		return
	}
	sugar := l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	Logf = func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if len(msg) >= len(warnPrefix) && msg[:len(warnPrefix)] == warnPrefix {
			sugar.Warn(msg[len(warnPrefix):])
			return
		}
		sugar.Info(msg)
	}
}

const warnPrefix = "WARNING: "

// NewLogger builds the production zap logger used by the CLI. Verbose
// lowers the level to debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}
