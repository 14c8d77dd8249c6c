// Package log provides the structured logger shared by the module. It
// wraps a zap logger; the first logger created with New becomes the
// package-wide logger returned by Provide.
package log

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging level
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel returns the Level named by s
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("parseLevel: unknown level %q", s)
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zap.DebugLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

var (
	innerLogger *Logger
	once        sync.Once
	nop         = &Logger{zapLogger: zap.NewNop(), level: zap.NewAtomicLevel()}
)

// Logger is a levelled structured logger
type Logger struct {
	zapLogger *zap.Logger
	level     zap.AtomicLevel
}

// New returns a new Logger at the given level. Development loggers write
// human readable console output, others write JSON.
func New(level Level, development bool) *Logger {
	atom := zap.NewAtomicLevelAt(level.zap())

	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.Config{
			Development: false,
			Sampling: &zap.SamplingConfig{
				Initial:    100,
				Thereafter: 100,
			},
			Encoding:         "json",
			EncoderConfig:    zap.NewProductionEncoderConfig(),
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			DisableCaller:    true,
		}
	}
	config.Level = atom

	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}

	logger := &Logger{zapLogger: zapLogger, level: atom}
	once.Do(func() { innerLogger = logger })

	return logger
}

// Provide returns the package-wide logger. It discards everything until
// New has been called.
func Provide() *Logger {
	if innerLogger == nil {
		return nop
	}
	return innerLogger
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, fields...)
}

// With returns a child logger which adds fields to every entry
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{zapLogger: l.zapLogger.With(fields...), level: l.level}
}

// SetLevel changes the level of l and of every logger derived from it
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

// Enabled reports whether entries at level are written
func (l *Logger) Enabled(level Level) bool {
	return l.zapLogger.Core().Enabled(level.zap())
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// Field is a key-value pair attached to a log entry
type Field = zap.Field

func String(key, value string) Field { return zap.String(key, value) }
func Int(key string, value int) Field { return zap.Int(key, value) }
func Float64(key string, value float64) Field { return zap.Float64(key, value) }
func Bool(key string, value bool) Field { return zap.Bool(key, value) }
func Duration(key string, d time.Duration) Field { return zap.Duration(key, d) }
func Stringer(key string, v fmt.Stringer) Field { return zap.Stringer(key, v) }
func Error(err error) Field { return zap.Error(err) }
