package db

import "fmt"

var (
	// ErrConnectionNotEstablished database connection not established
	ErrConnectionNotEstablished = fmt.Errorf("db: database connection not established")
	// ErrRecordNotFound no row matched a single-record fetch
	ErrRecordNotFound = fmt.Errorf("db: record not found")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("db: invalid config: %s", msg)
}

// ErrConnection database connection error
func ErrConnection(err error) error {
	return fmt.Errorf("db: connection failed: %w", err)
}

// ErrQuery query error
func ErrQuery(err error) error {
	return fmt.Errorf("db: query failed: %w", err)
}
