// Package logger provides structured logging for viswalis.
//
// The global logger writes to stderr by default because stdout may carry
// the cleaned CSV. Code that knows which cleaning session, operation or
// input it serves should log through WithContext so those fields are
// attached consistently.
package logger

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// contextKey is the type for context keys
type contextKey string

const (
	// SessionIDKey is the context key for the cleaning session ID
	SessionIDKey contextKey = "session_id"
	// OperationKey is the context key for the transform being applied
	OperationKey contextKey = "operation"
	// SourceKey is the context key for the input file
	SourceKey contextKey = "source"
)

var contextKeys = []contextKey{SessionIDKey, OperationKey, SourceKey}

// Config represents logger configuration
type Config struct {
	Level       string
	Development bool
	// Encoding is json or console, json when empty
	Encoding    string
	OutputPaths []string
}

// Init builds a logger from cfg and installs it as the global logger,
// replacing any previous one.
func Init(cfg Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

func newLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	switch cfg.Encoding {
	case "":
		cfg.Encoding = "json"
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid log encoding %q: want json or console", cfg.Encoding)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	l, err := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		DisableStacktrace: !cfg.Development,
		Encoding:          cfg.Encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputPaths,
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// ContextWith returns a copy of ctx carrying value under key, for use with WithContext
func ContextWith(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// Get returns the global logger, creating an info-level JSON logger on
// first use when Init was never called.
func Get() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l, err := newLogger(Config{Level: "info"})
	if err != nil {
		l = zap.NewNop()
	}
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

// WithContext returns the global logger with the session, operation and
// source carried by ctx
func WithContext(ctx context.Context) *zap.Logger {
	l := Get()
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			l = l.With(zap.String(string(key), v))
		}
	}
	return l
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Set replaces the global logger, mainly so tests can route output through zaptest
func Set(l *zap.Logger) {
	global.Store(l)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
