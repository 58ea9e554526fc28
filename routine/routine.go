// Package routine provides safe goroutine execution with panic recovery.
//
// It prevents direct use of `go func()` from crashing the entire application
// when a panic occurs, by wrapping goroutine execution with recovery logic.
package routine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
)

// Runner provides safe goroutine execution with panic recovery
// and lets the owner wait for everything it started.
type Runner interface {
	// GoNamed executes a named function in a new goroutine with panic recovery
	// The name is used for logging purposes
	GoNamed(name string, fn func())

	// GoNamedWithContext executes a named function with context in a new goroutine
	GoNamedWithContext(ctx context.Context, name string, fn func(ctx context.Context))

	// Wait waits for all goroutines started by this runner to complete
	Wait()
}

type defaultRunner struct {
	log logger.Logger
	wg  sync.WaitGroup
}

// New creates a new Runner with the given logger
func New(log logger.Logger) Runner {
	return &defaultRunner{log: log}
}

func (r *defaultRunner) GoNamed(name string, fn func()) {
	r.wg.Add(1)
	launch(r.log, name, func() {
		defer r.wg.Done()
		fn()
	})
}

func (r *defaultRunner) GoNamedWithContext(ctx context.Context, name string, fn func(ctx context.Context)) {
	r.GoNamed(name, func() { fn(ctx) })
}

func (r *defaultRunner) Wait() {
	r.wg.Wait()
}

// GoNamed executes a named function in a new goroutine with panic recovery
func GoNamed(log logger.Logger, name string, fn func()) {
	launch(log, name, fn)
}

// GoNamedWithContext executes a named function with context in a new goroutine
// with panic recovery
func GoNamedWithContext(ctx context.Context, log logger.Logger, name string, fn func(ctx context.Context)) {
	launch(log, name, func() { fn(ctx) })
}

// Recover converts a recovered panic into an error and logs it with its stack.
// It must be called directly from a deferred function:
//
//	defer func() { err = routine.Recover(log, "fetch", recover()) }()
//
// A nil rec yields a nil error.
func Recover(log logger.Logger, name string, rec any) error {
	if rec == nil {
		return nil
	}
	logPanic(log, name, rec)
	return ErrPanic(rec)
}

func launch(log logger.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logPanic(log, name, rec)
			}
		}()
		fn()
	}()
}

func logPanic(log logger.Logger, name string, rec any) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	fields := []zap.Field{
		zap.Any("panic", rec),
		zap.String("stack", string(debug.Stack())),
	}
	if name != "" {
		fields = append([]zap.Field{zap.String("routine", name)}, fields...)
	}
	log.Error("goroutine panicked", fields...)
}
