// Package logger provides the structured zap logger used for internal
// diagnostics across refreshkit.
//
// Refresh outcomes are reported through the cache's own Logger collaborator;
// this package covers everything around it: goroutine panics, broker and
// database plumbing, and the adapters in log/zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging operations
// *zap.Logger satisfies it.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

// New creates a new logger with the given configuration
// It also becomes the global logger used by the package-level functions.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, ErrInvalidLevel(cfg.Level, err)
	}

	l, err := build(cfg, level, cfg.Encoding == "console", 0)
	if err != nil {
		return nil, ErrBuildLogger(err)
	}

	// package-level helpers add one frame
	setGlobal(l.WithOptions(zap.AddCallerSkip(1)))
	return l, nil
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return zap.NewNop()
}

// encoderConfig is shared by configured and default global loggers
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func build(cfg *Config, level zapcore.Level, development bool, callerSkip int) (*zap.Logger, error) {
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig(),
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}
	return zapConfig.Build(
		zap.AddCallerSkip(callerSkip),
		zap.AddStacktrace(zapcore.DPanicLevel),
	)
}
