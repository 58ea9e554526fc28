// Package metrics exports refresh outcomes of proactive caches to Prometheus.
//
//	h, err := metrics.New(prometheus.DefaultRegisterer, nil)
//	c, err := cache.New(fetch, time.Minute, cache.WithName("profiles"), cache.WithHooks(h))
package metrics

import (
	"errors"

	"github.com/dailyyoga/refreshkit/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Hooks records every completed refresh.
type Hooks struct {
	refreshes   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

var _ cache.Hooks = (*Hooks)(nil)

// New creates the collectors and registers them with reg.
// Collectors already registered by an earlier call with the same
// configuration are reused, so several caches may share one registry.
func New(reg prometheus.Registerer, cfg *Config) (*Hooks, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Hooks{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "refreshes_total",
			Help:      "Completed refreshes by trigger and result.",
		}, []string{"cache", "trigger", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent in the fetch operation.",
			Buckets:   cfg.Buckets,
		}, []string{"cache", "trigger"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}, []string{"cache"}),
	}

	if reg == nil {
		return h, nil
	}
	var err error
	if h.refreshes, err = register(reg, h.refreshes); err != nil {
		return nil, err
	}
	if h.duration, err = register(reg, h.duration); err != nil {
		return nil, err
	}
	if h.lastSuccess, err = register(reg, h.lastSuccess); err != nil {
		return nil, err
	}
	return h, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, ErrRegister(err)
	}
	return c, nil
}

// RefreshCompleted implements cache.Hooks.
func (h *Hooks) RefreshCompleted(ev cache.RefreshEvent) {
	trigger := string(ev.Trigger)
	h.refreshes.WithLabelValues(ev.Cache, trigger, ev.Result()).Inc()
	h.duration.WithLabelValues(ev.Cache, trigger).Observe(ev.Duration.Seconds())
	if ev.Err == nil {
		h.lastSuccess.WithLabelValues(ev.Cache).Set(float64(ev.Started.Add(ev.Duration).UnixNano()) / 1e9)
	}
}
