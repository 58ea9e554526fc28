package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func setGlobal(l *zap.Logger) {
	global.Store(l)
}

// getGlobalLogger returns the global logger, building a default one on first use.
func getGlobalLogger() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l, err := build(DefaultConfig(), zapcore.InfoLevel, false, 1)
	if err != nil {
		l = zap.NewNop()
	}
	// lose the race gracefully: whoever stored first wins
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

// SetGlobalLogger sets the global logger.
// The provided logger should be created with AddCallerSkip(1) if you want
// correct caller information when using package-level functions.
func SetGlobalLogger(l *zap.Logger) {
	setGlobal(l)
}

// GetGlobalLogger returns the current global logger.
func GetGlobalLogger() *zap.Logger {
	return getGlobalLogger()
}

// Debug logs a message at debug level using the global logger.
func Debug(msg string, fields ...zap.Field) {
	getGlobalLogger().Debug(msg, fields...)
}

// Info logs a message at info level using the global logger.
func Info(msg string, fields ...zap.Field) {
	getGlobalLogger().Info(msg, fields...)
}

// Warn logs a message at warn level using the global logger.
func Warn(msg string, fields ...zap.Field) {
	getGlobalLogger().Warn(msg, fields...)
}

// Error logs a message at error level using the global logger.
func Error(msg string, fields ...zap.Field) {
	getGlobalLogger().Error(msg, fields...)
}

// Sync flushes any buffered log entries from the global logger.
func Sync() error {
	return getGlobalLogger().Sync()
}
