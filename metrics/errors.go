package metrics

import "fmt"

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("metrics: invalid config: %s", msg)
}

// ErrRegister collector registration error
func ErrRegister(err error) error {
	return fmt.Errorf("metrics: register collectors: %w", err)
}
