package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// gormLogger routes gorm's logs to the project's zap logger.
// Record-not-found errors are not logged: fetches report them to the cache.
type gormLogger struct {
	logger        logger.Logger
	level         glogger.LogLevel
	slowThreshold time.Duration
}

var _ glogger.Interface = (*gormLogger)(nil)

func newGormLogger(log logger.Logger, level string, slowThreshold time.Duration) *gormLogger {
	return &gormLogger{
		logger:        log,
		level:         parseLogLevel(level),
		slowThreshold: slowThreshold,
	}
}

func parseLogLevel(level string) glogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return glogger.Silent
	case "error":
		return glogger.Error
	case "info":
		return glogger.Info
	default:
		return glogger.Warn
	}
}

// LogMode sets the log level and returns a new logger
func (g *gormLogger) LogMode(level glogger.LogLevel) glogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Info {
		g.logger.Info(fmt.Sprintf(msg, data...), zap.String("component", "gorm"))
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Warn {
		g.logger.Warn(fmt.Sprintf(msg, data...), zap.String("component", "gorm"))
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Error {
		g.logger.Error(fmt.Sprintf(msg, data...), zap.String("component", "gorm"))
	}
}

// Trace logs SQL execution details
func (g *gormLogger) Trace(
	ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error,
) {
	if g.level <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := g.slowThreshold != 0 && elapsed > g.slowThreshold

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= glogger.Error:
		g.logger.Error("sql error", append(g.fields(elapsed, fc), zap.Error(err))...)
	case slow && g.level >= glogger.Warn:
		g.logger.Warn("slow sql", append(g.fields(elapsed, fc), zap.Duration("threshold", g.slowThreshold))...)
	case g.level >= glogger.Info:
		g.logger.Info("sql trace", g.fields(elapsed, fc)...)
	}
}

func (g *gormLogger) fields(elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	sql, rows := fc()
	return []zap.Field{
		zap.String("component", "gorm"),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
}
