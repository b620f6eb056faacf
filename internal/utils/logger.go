// Package utils provides utility functions used throughout the gateway.
package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with loosely typed key/value logging.
type Logger struct {
	*zap.Logger
}

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	// Development selects the colored console encoder
	Development bool
	Level       zapcore.Level
	// OutputPaths and ErrorOutputPaths accept zap sink URLs or file paths
	OutputPaths      []string
	ErrorOutputPaths []string
}

// DefaultLoggerOptions logs JSON at info level to stdout.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:            zapcore.InfoLevel,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// ParseLevel converts a configured level name to a zapcore.Level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	case "panic":
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	if development {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return enc
}

// NewLogger builds a logger from opts, or from DefaultLoggerOptions when none are given.
// A broken sink configuration falls back to a stderr example logger instead of failing.
func NewLogger(opts ...LoggerOptions) *Logger {
	options := DefaultLoggerOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	if len(options.OutputPaths) == 0 {
		options.OutputPaths = []string{"stdout"}
	}
	if len(options.ErrorOutputPaths) == 0 {
		options.ErrorOutputPaths = []string{"stderr"}
	}

	encoding := "json"
	if options.Development {
		encoding = "console"
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(options.Level),
		Development:      options.Development,
		Sampling:         &zap.SamplingConfig{Initial: 100, Thereafter: 100},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(options.Development),
		OutputPaths:      options.OutputPaths,
		ErrorOutputPaths: options.ErrorOutputPaths,
	}

	logger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		fallback := zap.NewExample()
		fallback.Error("Failed to create logger", zap.Error(err))
		return &Logger{fallback}
	}

	return &Logger{logger}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zap.NewNop()}
}

func (l *Logger) Info(msg string, fields ...any) {
	l.Logger.Info(msg, toZapFields(fields)...)
}

// Error logs at error level. err is attached under the "error" key when non-nil.
func (l *Logger) Error(msg string, err error, fields ...any) {
	l.Logger.Error(msg, withError(toZapFields(fields), err)...)
}

func (l *Logger) Warn(msg string, fields ...any) {
	l.Logger.Warn(msg, toZapFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...any) {
	l.Logger.Debug(msg, toZapFields(fields)...)
}

// Fatal logs at fatal level and exits the process.
func (l *Logger) Fatal(msg string, err error, fields ...any) {
	l.Logger.Fatal(msg, withError(toZapFields(fields), err)...)
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...any) *Logger {
	return &Logger{l.Logger.With(toZapFields(fields)...)}
}

// Named returns a child logger scoped to a component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

// Sync flushes buffered entries. Sync errors on stdout/stderr are not actionable.
func (l *Logger) Sync() {
	_ = l.Logger.Sync()
}

func withError(fields []zap.Field, err error) []zap.Field {
	if err == nil {
		return fields
	}
	return append(fields, zap.Error(err))
}

// toZapFields converts key/value pairs into zap fields. A zap.Field may appear in place of
// a key and is passed through. A trailing key without a value is logged as MISSING_VALUE.
func toZapFields(fields []any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	result := make([]zap.Field, 0, len(fields)/2+1)
	for i := 0; i < len(fields); i++ {
		if f, ok := fields[i].(zap.Field); ok {
			result = append(result, f)
			continue
		}

		key, ok := fields[i].(string)
		if !ok {
			key = "INVALID_KEY"
		}
		if i+1 >= len(fields) {
			result = append(result, zap.String(key, "MISSING_VALUE"))
			break
		}
		i++
		result = append(result, zap.Any(key, fields[i]))
	}
	return result
}

// GlobalLogger is used where no component logger was injected. main replaces it through
// SetLogger once configuration is loaded.
var GlobalLogger = NewLogger(LoggerOptions{
	Development: os.Getenv("APP_ENV") != "production",
	Level:       zapcore.InfoLevel,
})

// GetLogger returns the global logger.
func GetLogger() *Logger {
	return GlobalLogger
}

// SetLogger replaces the global logger. nil is ignored.
func SetLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}
