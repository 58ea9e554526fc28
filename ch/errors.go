package ch

import (
	"fmt"
)

var (
	// ErrConnectionClosed when connection is closed
	ErrConnectionClosed = fmt.Errorf("ch: connection is closed")

	// ErrNoRows when a single-row fetch finds nothing
	ErrNoRows = fmt.Errorf("ch: query returned no rows")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("ch: invalid config: %s", msg)
}

// ErrConnection ClickHouse connection error
func ErrConnection(err error) error {
	return fmt.Errorf("ch: connection failed: %w", err)
}

// ErrQuery query error
func ErrQuery(err error) error {
	return fmt.Errorf("ch: query failed: %w", err)
}
