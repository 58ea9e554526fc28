package cache

// Logger is the collaborator that receives refresh outcomes.
// Adapters for zap, logrus and slog live under log/.
type Logger interface {
	Info(msg string)
	Error(err error, msg string)
	Debug(msg string)
}

// NopLogger discards everything. It stands in when no Logger is configured.
type NopLogger struct{}

func (NopLogger) Info(string)         {}
func (NopLogger) Error(error, string) {}
func (NopLogger) Debug(string)        {}

// NewSafeLogger wraps l so that a panic raised inside any logging call is
// swallowed and never reaches the caller. A nil l yields NopLogger.
func NewSafeLogger(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	if s, ok := l.(*safeLogger); ok {
		return s
	}
	return &safeLogger{l: l}
}

type safeLogger struct {
	l Logger
}

func (s *safeLogger) Info(msg string) {
	defer absorb()
	s.l.Info(msg)
}

func (s *safeLogger) Error(err error, msg string) {
	defer absorb()
	s.l.Error(err, msg)
}

func (s *safeLogger) Debug(msg string) {
	defer absorb()
	s.l.Debug(msg)
}

// absorb drops whatever the wrapped call panicked with. Nothing is logged:
// the thing that failed is the logger.
func absorb() {
	_ = recover()
}
