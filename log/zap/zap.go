package zap

import (
	"github.com/dailyyoga/refreshkit/cache"
	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
)

var _ cache.Logger = ZapLogger{}

// ZapLogger adapts a logger.Logger (or *zap.Logger) to cache.Logger.
type ZapLogger struct{ L logger.Logger }

func (z ZapLogger) Debug(msg string)            { z.L.Debug(msg) }
func (z ZapLogger) Info(msg string)             { z.L.Info(msg) }
func (z ZapLogger) Error(err error, msg string) { z.L.Error(msg, zap.Error(err)) }
