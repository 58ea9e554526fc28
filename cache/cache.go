// Package cache provides a proactively refreshed, single-value read cache.
//
// A ProactiveCache holds one value of an arbitrary type and keeps it fresh by
// calling a FetchFunc on a phase-aligned schedule. Readers always get the most
// recently installed value without waiting for an in-flight refresh; only the
// very first read waits for the bootstrap fetch.
//
// The cache package follows the same conventions as the other packages:
//   - Configuration with validation and defaults
//   - Uses routine package for safe goroutine execution
//   - Structured error handling
//
// Refresh outcomes are reported through the Logger collaborator (see log/zap,
// log/logrus and log/slog for adapters) and through Hooks.
package cache

import "context"

// FetchFunc loads a fresh value from the upstream source.
// It is invoked once per refresh trigger and may be invoked concurrently when
// a forced refresh overlaps a scheduled one.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cache is the read surface of a ProactiveCache.
type Cache[T any] interface {
	// Get returns the current cached value.
	//
	// IMPORTANT: For reference types (slice, map, pointer, chan), Get returns
	// a reference to the cached data, not a deep copy. Callers MUST treat the
	// returned value as read-only.
	Get(ctx context.Context) (T, error)

	// ForceRefresh fetches immediately, outside the schedule, and returns the outcome.
	ForceRefresh(ctx context.Context) (T, error)

	// Close stops the schedule. It can be called multiple times safely.
	Close()
}

var _ Cache[int] = (*ProactiveCache[int])(nil)

// Refresher is the part of a cache that push-based triggers need:
// kafka.RefreshHandler and redis.Watch both force a refresh on notification.
type Refresher[T any] interface {
	ForceRefresh(ctx context.Context) (T, error)
}

var _ Refresher[int] = (*ProactiveCache[int])(nil)
