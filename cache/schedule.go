package cache

import (
	"math"
	"time"

	"github.com/robfig/cron/v3"
)

// PhaseSchedule fires on the grid Anchor + k*Period, k >= 0.
// It satisfies cron.Schedule so it can stand in wherever a cron schedule is
// accepted, and vice versa: WithSchedule takes any cron.Schedule.
type PhaseSchedule struct {
	Anchor time.Time
	Period time.Duration
}

var _ cron.Schedule = PhaseSchedule{}

// First returns the earliest grid point at or after now.
// An anchor in the past is advanced by whole periods until it is no longer
// behind now; an anchor in the future is returned unchanged.
func (s PhaseSchedule) First(now time.Time) time.Time {
	if !s.Anchor.Before(now) {
		return s.Anchor
	}
	anchor := s.near(now)
	behind := now.Sub(anchor)
	k := behind / s.Period
	if behind%s.Period != 0 {
		k++
	}
	return anchor.Add(k * s.Period)
}

// Next returns the earliest grid point strictly after t.
func (s PhaseSchedule) Next(t time.Time) time.Time {
	if s.Anchor.After(t) {
		return s.Anchor
	}
	anchor := s.near(t)
	return anchor.Add((t.Sub(anchor)/s.Period + 1) * s.Period)
}

// near returns a grid point not after t whose distance to t fits in a
// time.Duration. Sub saturates for anchors roughly 292 years back, so the
// anchor is moved forward in whole-period chunks first.
func (s PhaseSchedule) near(t time.Time) time.Time {
	chunk := time.Duration(math.MaxInt64) / s.Period * s.Period
	anchor := s.Anchor
	for t.Sub(anchor) >= chunk {
		anchor = anchor.Add(chunk)
	}
	return anchor
}

// firstFirer is implemented by schedules that may fire exactly at "now".
type firstFirer interface {
	First(now time.Time) time.Time
}

// firstFiring returns when a freshly armed schedule fires for the first time.
func firstFiring(s cron.Schedule, now time.Time) time.Time {
	if f, ok := s.(firstFirer); ok {
		return f.First(now)
	}
	return s.Next(now)
}

var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron expression with optional seconds field.
// Descriptors such as "@hourly" and "@every 90s" are accepted.
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := specParser.Parse(spec)
	if err != nil {
		return nil, ErrInvalidSpec(spec, err)
	}
	return s, nil
}
