package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dailyyoga/refreshkit/logger"
	"github.com/dailyyoga/refreshkit/routine"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

const defaultName = "proactive-cache"

// ProactiveCache holds a single value and refreshes it in the background.
//
// The cell moves Empty -> Pending -> Ready. While no value has ever been
// installed, readers wait on the most recent fetch and observe its outcome,
// error included. Once Ready, readers never wait again: a successful refresh
// replaces the value, a failed one is logged and the previous value stays.
type ProactiveCache[T any] struct {
	// Dependencies
	fetch FetchFunc[T]
	log   Logger
	diag  logger.Logger
	hooks Hooks
	clock clock.Clock

	// Configuration
	name         string
	schedule     cron.Schedule
	fetchTimeout time.Duration

	// Cell
	mu      sync.RWMutex
	value   T
	ready   bool
	pending *flight[T] // latest fetch started while not ready

	// Lifecycle
	closed   atomic.Bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	once     sync.Once
}

// New creates a cache around fetch and starts it.
//
// The bootstrap fetch is started before New returns but New does not wait
// for it. Scheduled refreshes fire on the grid phaseAnchor + k*period, the
// first one at the earliest grid point not before the construction instant.
// When that point is the construction instant itself the scheduled refresh
// fires immediately, alongside the bootstrap fetch.
func New[T any](fetch FetchFunc[T], period time.Duration, opts ...Option) (*ProactiveCache[T], error) {
	if fetch == nil {
		return nil, ErrNilFetch
	}
	if period <= 0 {
		return nil, ErrInvalidPeriod(period)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetchTimeout < 0 {
		return nil, ErrInvalidFetchTimeout(o.fetchTimeout)
	}
	if o.clock == nil {
		o.clock = clock.RealClock{}
	}
	if o.diag == nil {
		o.diag = logger.GetGlobalLogger()
	}
	if o.name == "" {
		o.name = defaultName
	}

	now := o.clock.Now()
	schedule := o.schedule
	if schedule == nil {
		anchor := now
		if o.anchor != nil {
			anchor = *o.anchor
		}
		schedule = PhaseSchedule{Anchor: anchor, Period: period}
	}

	var hooks Hooks = NopHooks{}
	if len(o.hooks) > 0 {
		hooks = o.hooks
	}

	c := &ProactiveCache[T]{
		fetch:        fetch,
		log:          NewSafeLogger(o.log),
		diag:         o.diag,
		hooks:        hooks,
		clock:        o.clock,
		name:         o.name,
		schedule:     schedule,
		fetchTimeout: o.fetchTimeout,
		loopDone:     make(chan struct{}),
	}

	boot := c.begin()
	routine.GoNamed(c.diag, c.name+"-bootstrap", func() {
		_, _ = c.refresh(context.Background(), boot, TriggerBootstrap)
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	first := firstFiring(schedule, now)
	routine.GoNamedWithContext(ctx, c.diag, c.name+"-schedule", func(ctx context.Context) {
		c.scheduleLoop(ctx, first)
	})

	return c, nil
}

// NewFromConfig creates a cache from cfg, filling zero values with defaults.
// Options are applied after the ones derived from cfg.
func NewFromConfig[T any](cfg *Config, fetch FetchFunc[T], opts ...Option) (*ProactiveCache[T], error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{WithName(cfg.Name), WithFetchTimeout(cfg.FetchTimeout)}
	if cfg.Spec != "" {
		s, err := ParseSchedule(cfg.Spec)
		if err != nil {
			return nil, err
		}
		base = append(base, WithSchedule(s))
	}
	return New(fetch, cfg.Period, append(base, opts...)...)
}

// Get returns the current cached value.
// It waits only while no value has ever been installed and a fetch is
// outstanding; ctx bounds that wait, not the fetch.
func (c *ProactiveCache[T]) Get(ctx context.Context) (T, error) {
	c.mu.RLock()
	if c.ready {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	f := c.pending
	c.mu.RUnlock()
	return f.wait(ctx)
}

// ForceRefresh fetches now, installs the result under the usual policy and
// returns the outcome. The schedule is left untouched.
// After an absorbed failure the previously installed value is returned.
func (c *ProactiveCache[T]) ForceRefresh(ctx context.Context) (T, error) {
	if c.closed.Load() {
		var zero T
		return zero, ErrCacheClosed
	}
	return c.refresh(ctx, c.begin(), TriggerForce)
}

// Close stops scheduled refreshes and waits for the schedule loop to exit.
// Fetches already running are not cancelled; their results are discarded.
func (c *ProactiveCache[T]) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed.Store(true)
		c.mu.Unlock()
		c.cancel()
		<-c.loopDone
		c.log.Debug(fmt.Sprintf("%s: schedule stopped", c.name))
	})
}

// begin registers a new pending flight if no value is installed yet.
// It returns nil once the cache is ready.
func (c *ProactiveCache[T]) begin() *flight[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	f := newFlight[T]()
	c.pending = f
	return f
}

// refresh runs one fetch and applies the install policy.
// f is the flight registered by begin, nil when the cache was already ready.
func (c *ProactiveCache[T]) refresh(ctx context.Context, f *flight[T], trigger Trigger) (T, error) {
	started := c.clock.Now()
	c.log.Debug(fmt.Sprintf("%s: %s refresh started", c.name, trigger))

	val, err := c.invoke(ctx)
	ev := RefreshEvent{
		Cache:    c.name,
		Trigger:  trigger,
		Started:  started,
		Duration: c.clock.Since(started),
		Err:      err,
	}

	// closed is set under mu, so a result either lands before Close or is dropped
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		if f != nil {
			f.settle(val, err)
		}
		return val, err
	}
	switch {
	case err == nil:
		c.value, c.ready, c.pending = val, true, nil
	case c.ready:
		val, err, ev.Stale = c.value, nil, true
	default:
		var zero T
		val = zero
	}
	c.mu.Unlock()

	if f != nil {
		f.settle(val, err)
	}
	c.report(ev)
	return val, err
}

// invoke calls fetch with the configured timeout, turning a panic into an error
// so that waiters are always released.
func (c *ProactiveCache[T]) invoke(ctx context.Context) (val T, err error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}
	defer func() {
		if perr := routine.Recover(c.diag, c.name+"-fetch", recover()); perr != nil {
			var zero T
			val, err = zero, perr
		}
	}()
	return c.fetch(ctx)
}

func (c *ProactiveCache[T]) report(ev RefreshEvent) {
	switch {
	case ev.Err == nil:
		c.log.Info(fmt.Sprintf("%s: cache refreshed successfully (%s)", c.name, ev.Trigger))
	case ev.Stale:
		c.log.Error(ev.Err, fmt.Sprintf("%s: error encountered during %s refresh, serving previous value: %v",
			c.name, ev.Trigger, ev.Err))
	default:
		c.log.Error(ev.Err, fmt.Sprintf("%s: error encountered during %s refresh: %v", c.name, ev.Trigger, ev.Err))
	}
	c.hooks.RefreshCompleted(ev)
}

// scheduleLoop fires a refresh at every schedule point starting at next.
// Refreshes run on their own goroutines so a slow fetch never delays the
// following tick. Points missed while the loop was late are skipped.
func (c *ProactiveCache[T]) scheduleLoop(ctx context.Context, next time.Time) {
	defer close(c.loopDone)

	for {
		if wait := next.Sub(c.clock.Now()); wait > 0 {
			timer := c.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C():
			}
		}
		if ctx.Err() != nil {
			return
		}

		f := c.begin()
		routine.GoNamed(c.diag, c.name+"-refresh", func() {
			_, _ = c.refresh(context.Background(), f, TriggerSchedule)
		})

		fired := next
		next = c.schedule.Next(fired)
		if now := c.clock.Now(); next.Before(now) {
			next = c.schedule.Next(now)
		}
		if !next.After(fired) {
			c.diag.Error("schedule has no firing after the last one, stopping refreshes",
				zap.String("cache", c.name),
				zap.Time("last", fired),
				zap.Time("next", next),
			)
			return
		}
	}
}
