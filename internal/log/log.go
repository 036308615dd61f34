// Package log is a thin zap wrapper with a context-first API.
// Hooks contribute request-scoped fields (trace id, operation name)
// to every entry, so call sites only pass their own fields.
package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap logger with a mutable level.
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
	hooks []Hook
}

var (
	globalMu sync.RWMutex
	global   = newLogger(Config{})
)

// SetGlobalConfig rebuilds the global logger from cfg.
func SetGlobalConfig(cfg Config) {
	l := newLogger(cfg)

	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the current global logger.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	return global
}

func newLogger(cfg Config) *Logger {
	cfg = cfg.withDefaults()

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer

	switch cfg.Output {
	case "file":
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     int(cfg.File.MaxAge.Hours() / 24),
			Compress:   cfg.File.Compress,
		})
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		sink = zapcore.Lock(os.Stdout)
	}

	core := zapcore.NewCore(enc, sink, level)

	return &Logger{
		z:     zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
		level: level,
		hooks: defaultHooks,
	}
}

func (l *Logger) log(ctx context.Context, lvl zapcore.Level, msg string, fields []Field) {
	if !l.level.Enabled(lvl) {
		return
	}

	for _, hook := range l.hooks {
		fields = append(fields, hook.Apply(ctx, msg)...)
	}

	switch lvl {
	case zapcore.DebugLevel:
		l.z.Debug(msg, fields...)
	case zapcore.InfoLevel:
		l.z.Info(msg, fields...)
	case zapcore.WarnLevel:
		l.z.Warn(msg, fields...)
	case zapcore.ErrorLevel:
		l.z.Error(msg, fields...)
	default:
		l.z.Info(msg, fields...)
	}
}

// Debug logs a debug entry with context hook fields applied.
func Debug(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().log(ctx, zapcore.DebugLevel, msg, fields)
}

// Info logs an info entry with context hook fields applied.
func Info(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().log(ctx, zapcore.InfoLevel, msg, fields)
}

// Warn logs a warn entry with context hook fields applied.
func Warn(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().log(ctx, zapcore.WarnLevel, msg, fields)
}

// Error logs an error entry with context hook fields applied.
func Error(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().log(ctx, zapcore.ErrorLevel, msg, fields)
}

// DebugEnabled reports whether debug entries are currently emitted.
// Use to guard expensive field construction.
func DebugEnabled(ctx context.Context) bool {
	return GetGlobalLogger().level.Enabled(zapcore.DebugLevel)
}

// Sync flushes buffered entries.
func Sync() error {
	return GetGlobalLogger().z.Sync()
}
