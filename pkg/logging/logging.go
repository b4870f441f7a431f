package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured context for a log entry.
type Fields map[string]any

// Logger is the structured logging interface used throughout the application.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
	With(fields Fields) Logger
}

type zapLogger struct {
	base *zap.Logger
}

// NewLogger creates a logger at the given level. Accepted levels are
// "debug", "info", "warn" and "error"; anything else falls back to info.
func NewLogger(level string) Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base}
}

// NewDefaultLogger creates an info-level logger.
func NewDefaultLogger() Logger {
	return NewLogger("info")
}

// NewNopLogger creates a logger that discards everything. Useful in tests.
func NewNopLogger() Logger {
	return &zapLogger{base: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, flatten(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Info(msg, flatten(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, flatten(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Fields) {
	l.base.Error(msg, flatten(fields)...)
}

func (l *zapLogger) With(fields Fields) Logger {
	return &zapLogger{base: l.base.With(flatten([]Fields{fields})...)}
}

func flatten(fields []Fields) []zap.Field {
	var out []zap.Field
	for _, f := range fields {
		for k, v := range f {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
