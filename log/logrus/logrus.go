package logrus

import (
	"github.com/dailyyoga/refreshkit/cache"
	"github.com/sirupsen/logrus"
)

var _ cache.Logger = LogrusLogger{}

// LogrusLogger adapts a logrus entry to cache.Logger.
type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string) { l.E.Debug(msg) }
func (l LogrusLogger) Info(msg string)  { l.E.Info(msg) }
func (l LogrusLogger) Error(err error, msg string) {
	l.E.WithError(err).Error(msg)
}
