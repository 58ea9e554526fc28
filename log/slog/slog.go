package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/dailyyoga/refreshkit/cache"
)

var _ cache.Logger = Logger{}

// Logger adapts a *slog.Logger to cache.Logger; errors go under the "err" key.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg)
}
func (s Logger) Info(msg string) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg)
}
func (s Logger) Error(err error, msg string) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, stdslog.Any("err", err))
}
