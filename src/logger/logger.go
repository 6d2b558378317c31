package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

// Logger provides named, printf-style logging on top of zap
type Logger struct {
	name  string
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// -----------------------------------------------------------------------------

// Options selects level and encoding of a Logger
type Options struct {
	Level  string // DEBUG, INFO, WARNING, ERROR
	Format string // json or console
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance
func NewLogger(opts Options, name string) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.EqualFold(opts.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), parseLevel(opts.Level))
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named(name)

	return &Logger{name: name, sugar: base.Sugar(), base: base}
}

// -----------------------------------------------------------------------------

// NewNopLogger returns a Logger that discards everything (tests)
func NewNopLogger() *Logger {
	base := zap.NewNop()
	return &Logger{name: "nop", sugar: base.Sugar(), base: base}
}

// -----------------------------------------------------------------------------

// Named returns a child logger sharing the same core
func (l *Logger) Named(name string) *Logger {
	child := l.base.Named(name)
	return &Logger{name: name, sugar: child.Sugar(), base: child}
}

// -----------------------------------------------------------------------------

// Zap exposes the underlying zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// -----------------------------------------------------------------------------

// Debug logs debugging messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
	_ = l.base.Sync()
	os.Exit(1)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries
func (l *Logger) Sync() {
	_ = l.base.Sync()
}

// -----------------------------------------------------------------------------

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARNING", "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
