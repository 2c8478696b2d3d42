// Package logging wraps go.uber.org/zap with the naming and level
// conventions used across the engine's components.
package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors zapcore levels so callers never import zapcore directly.
type Level int8

const (
	DebugLevel Level = -1
	InfoLevel  Level = 0
	WarnLevel  Level = 1
	ErrorLevel Level = 2
)

// Logger is a named, structured logger. Each component that logs (the
// matcher, the engine facade, and each market the facade holds) gets its
// own Named() child so log lines are attributable.
type Logger struct {
	*zap.Logger
	config *zap.Config
	name   string
}

// NewProduction builds a JSON-encoded logger suitable for a running
// service, at the given minimum level.
func NewProduction(level Level) *Logger {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.Level(level)),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: l, config: &cfg}
}

// NewDevelopment builds a human-readable console logger for local runs
// and tests.
func NewDevelopment() *Logger {
	cfg := zap.NewDevelopmentConfig()
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: l, config: &cfg}
}

// Named returns a child logger whose name is dotted onto the parent's.
func (l *Logger) Named(name string) *Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &Logger{
		Logger: l.Logger.Named(name),
		config: l.config,
		name:   full,
	}
}

// With returns a child logger with the given structured fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
		config: l.config,
		name:   l.name,
	}
}

// Field constructors re-exported for callers that want domain-named
// helpers instead of importing zap directly.
func String(key, val string) zap.Field              { return zap.String(key, val) }
func Err(err error) zap.Field                        { return zap.Error(err) }
func Duration(key string, v time.Duration) zap.Field { return zap.Duration(key, v) }
func Any(key string, v interface{}) zap.Field        { return zap.Any(key, v) }
