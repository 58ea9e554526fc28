package cache

import (
	"time"

	"github.com/dailyyoga/refreshkit/logger"
	"github.com/robfig/cron/v3"
	"k8s.io/utils/clock"
)

// Option configures a ProactiveCache.
type Option func(*options)

type options struct {
	name         string
	log          Logger
	diag         logger.Logger
	anchor       *time.Time
	clock        clock.Clock
	schedule     cron.Schedule
	fetchTimeout time.Duration
	hooks        multiHooks
}

// WithName labels log lines, goroutines and hook events.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the collaborator that receives refresh outcomes.
// Without it the cache is silent.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDiagnostics sets the zap logger used for goroutine panics.
// Defaults to the global logger.
func WithDiagnostics(l logger.Logger) Option {
	return func(o *options) { o.diag = l }
}

// WithPhaseAnchor aligns scheduled refreshes to anchor + k*period.
// Defaults to the construction instant.
func WithPhaseAnchor(anchor time.Time) Option {
	return func(o *options) { o.anchor = &anchor }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSchedule replaces the phase grid with an arbitrary schedule,
// e.g. one returned by ParseSchedule. The phase anchor is then ignored.
func WithSchedule(s cron.Schedule) Option {
	return func(o *options) { o.schedule = s }
}

// WithFetchTimeout bounds every fetch. Zero means no timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.fetchTimeout = d }
}

// WithHooks registers refresh hooks. It may be given more than once.
func WithHooks(h ...Hooks) Option {
	return func(o *options) {
		for _, hook := range h {
			if hook != nil {
				o.hooks = append(o.hooks, hook)
			}
		}
	}
}
