package redis

import "fmt"

var (
	// ErrKeyNotFound is returned by fetches whose key does not exist
	ErrKeyNotFound = fmt.Errorf("redis: key not found")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("redis: invalid config: %s", msg)
}

// ErrConnection redis connection error
func ErrConnection(err error) error {
	return fmt.Errorf("redis: connection failed: %w", err)
}

// ErrMissingKey wraps ErrKeyNotFound with the key
func ErrMissingKey(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// ErrDecode payload decode error
func ErrDecode(key string, err error) error {
	return fmt.Errorf("redis: decode %s: %w", key, err)
}

// ErrSubscribe subscription error
func ErrSubscribe(channel string, err error) error {
	return fmt.Errorf("redis: subscribe %s: %w", channel, err)
}
