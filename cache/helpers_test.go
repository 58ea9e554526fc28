package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// counterSource returns 1, 2, 3, ... on successive calls.
type counterSource struct {
	calls atomic.Int32
}

func (s *counterSource) fetch(context.Context) (int, error) {
	return int(s.calls.Add(1)), nil
}

// scriptedSource fails on the calls listed in failOn and counts otherwise.
type scriptedSource struct {
	calls  atomic.Int32
	failOn map[int32]error
}

func (s *scriptedSource) fetch(context.Context) (int, error) {
	n := s.calls.Add(1)
	if err, ok := s.failOn[n]; ok {
		return -1, err
	}
	return int(n), nil
}

// gatedSource blocks every call until release is closed.
type gatedSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{release: make(chan struct{})}
}

func (s *gatedSource) fetch(context.Context) (int, error) {
	n := s.calls.Add(1)
	<-s.release
	return int(n), nil
}

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
	errs   []error
	debugs []string
}

func (l *recordingLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(err error, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
	l.errs = append(l.errs, err)
}

func (l *recordingLogger) Debug(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

type panickingLogger struct{}

func (panickingLogger) Info(string)         { panic("info exploded") }
func (panickingLogger) Error(error, string) { panic(errors.New("error exploded")) }
func (panickingLogger) Debug(string)        { panic("debug exploded") }

type recordingHooks struct {
	events chan RefreshEvent
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{events: make(chan RefreshEvent, 64)}
}

func (h *recordingHooks) RefreshCompleted(ev RefreshEvent) {
	h.events <- ev
}

func (h *recordingHooks) next(t *testing.T) RefreshEvent {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for refresh event")
		return RefreshEvent{}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// step advances fc once the schedule loop is parked on its timer.
func step(t *testing.T, fc *testingclock.FakeClock, d time.Duration) {
	t.Helper()
	waitFor(t, "schedule timer", fc.HasWaiters)
	fc.Step(d)
}

func expectValue[T comparable](t *testing.T, c *ProactiveCache[T], want T) {
	t.Helper()
	var last T
	waitFor(t, "cached value", func() bool {
		v, err := c.Get(context.Background())
		last = v
		return err == nil && v == want
	})
	if last != want {
		t.Fatalf("expected %v, got %v", want, last)
	}
}

// quiet returns options that keep the schedule from firing unless the test steps the clock.
func quiet(fc *testingclock.FakeClock) []Option {
	return []Option{
		WithClock(fc),
		WithPhaseAnchor(fc.Now().Add(time.Hour)),
		WithDiagnostics(zap.NewNop()),
	}
}
