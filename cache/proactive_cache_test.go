package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"
)

func TestNew_InvalidArguments(t *testing.T) {
	src := &counterSource{}
	tests := []struct {
		name    string
		fetch   FetchFunc[int]
		period  time.Duration
		opts    []Option
		wantErr string
	}{
		{"nil fetch", nil, time.Second, nil, ErrNilFetch.Error()},
		{"zero period", src.fetch, 0, nil, "invalid refresh period"},
		{"negative period", src.fetch, -time.Second, nil, "invalid refresh period"},
		{"negative timeout", src.fetch, time.Second, []Option{WithFetchTimeout(-1)}, "invalid fetch timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.fetch, tt.period, tt.opts...)
			if err == nil {
				c.Close()
				t.Fatal("expected construction to fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
	if src.calls.Load() != 0 {
		t.Errorf("failed construction must not fetch, got %d calls", src.calls.Load())
	}
}

func TestProactiveCache_PhaseAnchorInPast(t *testing.T) {
	// period 2s, anchor 1s ago: refreshes at 0 (bootstrap), 1s, 3s, 5s
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, 2*time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(-time.Second)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	expectValue(t, c, 1)

	step(t, fc, 999*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	expectValue(t, c, 1)

	step(t, fc, time.Millisecond) // 1s
	expectValue(t, c, 2)

	step(t, fc, 2*time.Second) // 3s
	expectValue(t, c, 3)

	step(t, fc, 2*time.Second) // 5s
	expectValue(t, c, 4)

	if got := src.calls.Load(); got != 4 {
		t.Errorf("expected 4 fetches, got %d", got)
	}
}

func TestProactiveCache_PhaseAnchorInFuture(t *testing.T) {
	// period 2s, anchor 1s ahead: bootstrap at 0, then 1s, 3s, 5s
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, 2*time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	expectValue(t, c, 1)

	step(t, fc, 500*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	expectValue(t, c, 1) // nothing fires before the anchor

	step(t, fc, 500*time.Millisecond) // 1s
	expectValue(t, c, 2)

	step(t, fc, time.Second) // 2s
	time.Sleep(10 * time.Millisecond)
	expectValue(t, c, 2)

	step(t, fc, time.Second) // 3s
	expectValue(t, c, 3)

	step(t, fc, 2*time.Second) // 5s
	expectValue(t, c, 4)
}

func TestProactiveCache_AnchorAtNowFetchesTwice(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"explicit anchor", []Option{WithPhaseAnchor(epoch)}},
		{"default anchor", nil},
		{"anchor whole periods ago", []Option{WithPhaseAnchor(epoch.Add(-6 * time.Second))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := testingclock.NewFakeClock(epoch)
			src := &counterSource{}
			opts := append([]Option{WithClock(fc), WithDiagnostics(zap.NewNop())}, tt.opts...)
			c, err := New(src.fetch, 2*time.Second, opts...)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer c.Close()

			// bootstrap and the zero-offset scheduled refresh both run
			waitFor(t, "two fetches", func() bool { return src.calls.Load() == 2 })
			waitFor(t, "schedule re-armed", fc.HasWaiters)
			v, err := c.Get(context.Background())
			if err != nil || (v != 1 && v != 2) {
				t.Fatalf("unexpected value %v, err %v", v, err)
			}

			step(t, fc, 2*time.Second)
			expectValue(t, c, 3)
		})
	}
}

func TestProactiveCache_ConcurrentReadersShareBootstrap(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := newGatedSource()
	c, err := New(src.fetch, time.Minute, quiet(fc)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	const readers = 100
	var wg sync.WaitGroup
	results := make([]int, readers)
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background())
		}(i)
	}

	waitFor(t, "bootstrap fetch", func() bool { return src.calls.Load() == 1 })
	time.Sleep(10 * time.Millisecond)
	close(src.release)
	wg.Wait()

	for i := 0; i < readers; i++ {
		if errs[i] != nil || results[i] != 1 {
			t.Fatalf("reader %d got (%v, %v), want (1, nil)", i, results[i], errs[i])
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("expected exactly one bootstrap fetch, got %d", got)
	}
}

func TestProactiveCache_RepeatedGetDoesNotFetch(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, time.Minute, quiet(fc)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	expectValue(t, c, 1)
	for i := 0; i < 50; i++ {
		if v, err := c.Get(context.Background()); v != 1 || err != nil {
			t.Fatalf("Get #%d = (%v, %v)", i, v, err)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}
}

func TestProactiveCache_StaleOnFailure(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	errUpstream := errors.New("upstream unavailable")
	src := &scriptedSource{failOn: map[int32]error{2: errUpstream, 3: errUpstream}}
	log := &recordingLogger{}
	hooks := newRecordingHooks()
	c, err := New(src.fetch, time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)),
		WithLogger(log), WithHooks(hooks), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if ev := hooks.next(t); ev.Err != nil || ev.Trigger != TriggerBootstrap {
		t.Fatalf("unexpected bootstrap event %+v", ev)
	}

	// scheduled failure is absorbed
	step(t, fc, time.Second)
	ev := hooks.next(t)
	if ev.Trigger != TriggerSchedule || !errors.Is(ev.Err, errUpstream) || !ev.Stale {
		t.Fatalf("unexpected scheduled event %+v", ev)
	}
	if v, err := c.Get(context.Background()); v != 1 || err != nil {
		t.Fatalf("Get = (%v, %v), want previous value", v, err)
	}

	// forced failure returns the previous value, not the error
	v, err := c.ForceRefresh(context.Background())
	if v != 1 || err != nil {
		t.Fatalf("ForceRefresh = (%v, %v), want (1, nil)", v, err)
	}
	if ev := hooks.next(t); ev.Trigger != TriggerForce || !ev.Stale {
		t.Fatalf("unexpected forced event %+v", ev)
	}

	if n := log.errorCount(); n != 2 {
		t.Fatalf("expected 2 logged errors, got %d", n)
	}
	log.mu.Lock()
	for i, msg := range log.errors {
		if !strings.Contains(msg, "upstream unavailable") {
			t.Errorf("error message %d does not carry the failure: %q", i, msg)
		}
		if log.errs[i] != errUpstream {
			t.Errorf("logged error %d is not the fetch error: %v", i, log.errs[i])
		}
	}
	log.mu.Unlock()

	// recovery installs the next good value
	step(t, fc, time.Second)
	expectValue(t, c, 4)
}

func TestProactiveCache_BootstrapFailureSurfacesError(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	errBoot := errors.New("simulated data fetch failure")
	src := &scriptedSource{failOn: map[int32]error{1: errBoot}}
	c, err := New(src.fetch, time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	v, err := c.Get(context.Background())
	if err != errBoot {
		t.Fatalf("expected the original fetch error, got %v", err)
	}
	if v != 0 {
		t.Errorf("expected zero value alongside the error, got %v", v)
	}

	// no automatic retry until the schedule fires
	time.Sleep(10 * time.Millisecond)
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch before the first tick, got %d", got)
	}
	if _, err := c.Get(context.Background()); err != errBoot {
		t.Fatalf("expected the bootstrap error to persist, got %v", err)
	}

	step(t, fc, time.Second)
	expectValue(t, c, 2)
}

func TestProactiveCache_FailuresWithoutValueKeepSurfacing(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	errFirst := errors.New("first")
	errSecond := errors.New("second")
	src := &scriptedSource{failOn: map[int32]error{1: errFirst, 2: errSecond}}
	c, err := New(src.fetch, time.Minute, quiet(fc)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(context.Background()); err != errFirst {
		t.Fatalf("expected first error, got %v", err)
	}
	if _, err := c.ForceRefresh(context.Background()); err != errSecond {
		t.Fatalf("expected ForceRefresh to surface second error, got %v", err)
	}
	if _, err := c.Get(context.Background()); err != errSecond {
		t.Fatalf("expected Get to surface latest error, got %v", err)
	}
	if v, err := c.ForceRefresh(context.Background()); v != 3 || err != nil {
		t.Fatalf("ForceRefresh = (%v, %v), want (3, nil)", v, err)
	}
	expectValue(t, c, 3)
}

func TestProactiveCache_LoggerCapturesFailures(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	log := &recordingLogger{}
	failing := func(context.Context) (string, error) {
		return "", errors.New("Simulated data fetch failure.")
	}
	c, err := New(failing, time.Second, append(quiet(fc), WithLogger(log))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("expected bootstrap error")
	}
	waitFor(t, "error log", func() bool { return log.errorCount() == 1 })

	log.mu.Lock()
	defer log.mu.Unlock()
	if !strings.Contains(log.errors[0], "Simulated data fetch failure.") {
		t.Errorf("error log does not carry the failure: %q", log.errors[0])
	}
	if len(log.debugs) == 0 {
		t.Error("expected a debug line when the refresh started")
	}
}

func TestProactiveCache_SuccessIsLogged(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	log := &recordingLogger{}
	src := &counterSource{}
	c, err := New(src.fetch, time.Second, append(quiet(fc), WithLogger(log), WithName("profiles"))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	expectValue(t, c, 1)
	waitFor(t, "info log", func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		return len(log.infos) == 1
	})
	log.mu.Lock()
	defer log.mu.Unlock()
	if want := "profiles: cache refreshed successfully (bootstrap)"; log.infos[0] != want {
		t.Errorf("info = %q, want %q", log.infos[0], want)
	}
}

func TestProactiveCache_PanickingLoggerIsHarmless(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	errBoot := errors.New("boom")
	src := &scriptedSource{failOn: map[int32]error{1: errBoot}}
	c, err := New(src.fetch, time.Second, append(quiet(fc), WithLogger(panickingLogger{}))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(context.Background()); err != errBoot {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
	if v, err := c.ForceRefresh(context.Background()); v != 2 || err != nil {
		t.Fatalf("ForceRefresh = (%v, %v)", v, err)
	}
}

func TestProactiveCache_FetchPanicBecomesError(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	exploding := func(context.Context) (int, error) {
		panic("fetch exploded")
	}
	c, err := New(exploding, time.Second, quiet(fc)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	_, err = c.Get(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetch exploded") {
		t.Fatalf("expected recovered panic error, got %v", err)
	}
}

func TestProactiveCache_GetDoesNotWaitForRefresh(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	release := make(chan struct{})
	var src counterSource
	fetch := func(ctx context.Context) (int, error) {
		n, _ := src.fetch(ctx)
		if n > 1 {
			<-release
		}
		return n, nil
	}
	c, err := New(fetch, time.Minute, quiet(fc)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	expectValue(t, c, 1)

	done := make(chan int, 1)
	go func() {
		v, _ := c.ForceRefresh(context.Background())
		done <- v
	}()
	waitFor(t, "refresh in flight", func() bool { return src.calls.Load() == 2 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if v, err := c.Get(ctx); v != 1 || err != nil {
		t.Fatalf("Get during refresh = (%v, %v), want (1, nil)", v, err)
	}

	close(release)
	if v := <-done; v != 2 {
		t.Fatalf("ForceRefresh returned %v, want 2", v)
	}
	if v, _ := c.Get(context.Background()); v != 2 {
		t.Fatalf("Get after refresh = %v, want 2", v)
	}
}

func TestProactiveCache_ForceRefreshKeepsPhase(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, 2*time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	expectValue(t, c, 1)

	step(t, fc, 500*time.Millisecond)
	if v, err := c.ForceRefresh(context.Background()); v != 2 || err != nil {
		t.Fatalf("ForceRefresh = (%v, %v)", v, err)
	}
	if v, _ := c.Get(context.Background()); v != 2 {
		t.Fatalf("Get after ForceRefresh = %v, want 2", v)
	}

	// the scheduled refresh still lands on the original grid
	step(t, fc, 500*time.Millisecond)
	expectValue(t, c, 3)
	step(t, fc, 2*time.Second)
	expectValue(t, c, 4)
}

func TestProactiveCache_Close(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	expectValue(t, c, 1)
	waitFor(t, "schedule timer", fc.HasWaiters)

	c.Close()
	c.Close()

	if fc.HasWaiters() {
		t.Error("expected the schedule timer to be stopped")
	}
	fc.Step(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	if got := src.calls.Load(); got != 1 {
		t.Errorf("expected no fetch after Close, got %d calls", got)
	}
	if _, err := c.ForceRefresh(context.Background()); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
	if v, err := c.Get(context.Background()); v != 1 || err != nil {
		t.Errorf("Get after Close = (%v, %v), want last value", v, err)
	}
}

func TestProactiveCache_CloseDuringBootstrap(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := newGatedSource()
	hooks := newRecordingHooks()
	c, err := New(src.fetch, time.Second, append(quiet(fc), WithHooks(hooks))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	waitFor(t, "bootstrap fetch", func() bool { return src.calls.Load() == 1 })

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on the in-flight fetch")
	}

	close(src.release)
	if v, err := c.Get(context.Background()); v != 1 || err != nil {
		t.Fatalf("waiters must still be released, got (%v, %v)", v, err)
	}
	select {
	case ev := <-hooks.events:
		t.Fatalf("no hook expected after Close, got %+v", ev)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestProactiveCache_GetHonoursContext(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := newGatedSource()
	c, err := New(src.fetch, time.Second, quiet(fc)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(src.release)
	expectValue(t, c, 1)
	if got := src.calls.Load(); got != 1 {
		t.Errorf("abandoned wait must not trigger a fetch, got %d calls", got)
	}
}

func TestProactiveCache_FetchTimeout(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	slow := func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	c, err := New(slow, time.Second, append(quiet(fc), WithFetchTimeout(10*time.Millisecond))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected fetch timeout, got %v", err)
	}
}

func TestProactiveCache_CronSchedule(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	sched, err := ParseSchedule("@every 5s")
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}
	src := &counterSource{}
	hooks := newRecordingHooks()
	c, err := New(src.fetch, time.Hour,
		WithClock(fc), WithSchedule(sched), WithHooks(hooks), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	expectValue(t, c, 1)
	hooks.next(t)

	step(t, fc, 5*time.Second)
	if ev := hooks.next(t); ev.Trigger != TriggerSchedule {
		t.Fatalf("unexpected trigger %q", ev.Trigger)
	}
	expectValue(t, c, 2)
}

func TestNewFromConfig(t *testing.T) {
	src := &counterSource{}
	if _, err := NewFromConfig(&Config{Spec: "not a spec"}, src.fetch); err == nil {
		t.Fatal("expected invalid spec to be rejected")
	}

	fc := testingclock.NewFakeClock(epoch)
	hooks := newRecordingHooks()
	c, err := NewFromConfig(&Config{Name: "feature-flags"}, src.fetch, append(quiet(fc), WithHooks(hooks))...)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer c.Close()

	ev := hooks.next(t)
	if ev.Cache != "feature-flags" {
		t.Errorf("expected cache name from config, got %q", ev.Cache)
	}
	if c.fetchTimeout != 30*time.Second {
		t.Errorf("expected default fetch timeout, got %v", c.fetchTimeout)
	}
}

func TestHooks_PanicIsAbsorbed(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	after := newRecordingHooks()
	c, err := New(src.fetch, time.Second, append(quiet(fc), WithHooks(panickingHooks{}, after))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if ev := after.next(t); ev.Err != nil {
		t.Fatalf("unexpected event %+v", ev)
	}
	expectValue(t, c, 1)
}

type panickingHooks struct{}

func (panickingHooks) RefreshCompleted(RefreshEvent) { panic("hook exploded") }

func TestProactiveCache_AncientAnchorSleeps(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, time.Hour,
		WithClock(fc), WithPhaseAnchor(time.Date(1, 1, 1, 3, 30, 0, 0, time.UTC)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	expectValue(t, c, 1)
	waitFor(t, "schedule timer", fc.HasWaiters)
	time.Sleep(20 * time.Millisecond)
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected only the bootstrap fetch before the first grid point, got %d", got)
	}

	step(t, fc, 30*time.Minute)
	expectValue(t, c, 2)
	step(t, fc, time.Hour)
	expectValue(t, c, 3)
}

// stuckSchedule always reports the same instant.
type stuckSchedule struct{ at time.Time }

func (s stuckSchedule) Next(time.Time) time.Time { return s.at }

func TestProactiveCache_ScheduleThatStopsAdvancing(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	src := &counterSource{}
	c, err := New(src.fetch, time.Second,
		WithClock(fc), WithSchedule(stuckSchedule{at: epoch.Add(time.Second)}), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	expectValue(t, c, 1)

	step(t, fc, time.Second)
	expectValue(t, c, 2)

	// the loop gives up instead of firing again on the same instant
	time.Sleep(20 * time.Millisecond)
	if fc.HasWaiters() {
		t.Error("expected no timer to be re-armed")
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}

func TestProactiveCache_TickDoesNotWaitForSlowRefresh(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	release := make(chan struct{})
	var src counterSource
	fetch := func(ctx context.Context) (int, error) {
		n, _ := src.fetch(ctx)
		if n == 2 {
			<-release
		}
		return n, nil
	}
	c, err := New(fetch, time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)), WithDiagnostics(zap.NewNop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	expectValue(t, c, 1)

	step(t, fc, time.Second)
	waitFor(t, "second fetch in flight", func() bool { return src.calls.Load() == 2 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if v, err := c.Get(ctx); v != 1 || err != nil {
		t.Fatalf("Get while refresh blocked = (%v, %v), want (1, nil)", v, err)
	}

	// the next tick fires while fetch #2 is still blocked
	step(t, fc, time.Second)
	waitFor(t, "third fetch", func() bool { return src.calls.Load() == 3 })
	expectValue(t, c, 3)

	// the last refresh to complete wins
	close(release)
	expectValue(t, c, 2)
}

func TestProactiveCache_RefreshFinishingAfterCloseIsDropped(t *testing.T) {
	fc := testingclock.NewFakeClock(epoch)
	release := make(chan struct{})
	var src counterSource
	fetch := func(ctx context.Context) (int, error) {
		n, _ := src.fetch(ctx)
		if n == 2 {
			<-release
		}
		return n, nil
	}
	hooks := newRecordingHooks()
	c, err := New(fetch, time.Second,
		WithClock(fc), WithPhaseAnchor(epoch.Add(time.Second)), WithDiagnostics(zap.NewNop()), WithHooks(hooks))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	expectValue(t, c, 1)
	hooks.next(t)

	step(t, fc, time.Second)
	waitFor(t, "scheduled fetch in flight", func() bool { return src.calls.Load() == 2 })
	c.Close()
	close(release)

	select {
	case ev := <-hooks.events:
		t.Fatalf("no hook expected after Close, got %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
	if v, err := c.Get(context.Background()); v != 1 || err != nil {
		t.Fatalf("Get after Close = (%v, %v), want (1, nil)", v, err)
	}
}
