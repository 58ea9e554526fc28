package cache

import (
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrCacheClosed is returned by ForceRefresh once the cache is closed
	ErrCacheClosed = fmt.Errorf("cache: cache is closed")
	// ErrNilFetch is returned when no fetch operation is supplied
	ErrNilFetch = fmt.Errorf("cache: fetch operation is required")
)

// ErrInvalidPeriod returns an error for a non-positive refresh period
func ErrInvalidPeriod(period time.Duration) error {
	return fmt.Errorf("cache: invalid refresh period: %v (must be > 0)", period)
}

// ErrInvalidFetchTimeout returns an error for a negative fetch timeout
func ErrInvalidFetchTimeout(timeout time.Duration) error {
	return fmt.Errorf("cache: invalid fetch timeout: %v (must be >= 0)", timeout)
}

// ErrInvalidSpec returns an error for a cron spec that does not parse
func ErrInvalidSpec(spec string, err error) error {
	return fmt.Errorf("cache: invalid schedule spec %q: %w", spec, err)
}
