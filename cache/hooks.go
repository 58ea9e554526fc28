package cache

import "time"

// Trigger identifies what started a refresh.
type Trigger string

const (
	TriggerBootstrap Trigger = "bootstrap"
	TriggerSchedule  Trigger = "schedule"
	TriggerForce     Trigger = "force"
)

// RefreshEvent describes one completed refresh.
type RefreshEvent struct {
	Cache    string
	Trigger  Trigger
	Started  time.Time
	Duration time.Duration
	// Err is the fetch error, nil on success.
	Err error
	// Stale reports that Err was absorbed and the previous value is still served.
	Stale bool
}

// Values returned by RefreshEvent.Result
const (
	ResultOK     = "ok"
	ResultStale  = "stale"
	ResultFailed = "failed"
)

// Result classifies the outcome of the refresh.
func (ev RefreshEvent) Result() string {
	switch {
	case ev.Err == nil:
		return ResultOK
	case ev.Stale:
		return ResultStale
	default:
		return ResultFailed
	}
}

// Hooks receive refresh events after the install decision has been made.
// Implementations MUST be cheap; they run on the refreshing goroutine.
// A panicking hook is absorbed the same way a panicking Logger is.
type Hooks interface {
	RefreshCompleted(ev RefreshEvent)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RefreshCompleted(RefreshEvent) {}

type multiHooks []Hooks

func (m multiHooks) RefreshCompleted(ev RefreshEvent) {
	for _, h := range m {
		notify(h, ev)
	}
}

func notify(h Hooks, ev RefreshEvent) {
	defer absorb()
	h.RefreshCompleted(ev)
}
