// Package ch provides a read-only ClickHouse client and fetch operations
// that load a cached value with a query.
package ch

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client is the ClickHouse query interface
type Client interface {
	// Query executes a ClickHouse query and returns driver.Rows
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	// QueryRow executes a query that is expected to return at most one row
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	// Select executes a query and scans every row into dest, a pointer to a slice of structs
	Select(ctx context.Context, dest any, query string, args ...any) error
	// Ping checks the connection
	Ping(ctx context.Context) error
	// Close closes the client and all associated resources
	Close() error
}

// conn is the part of driver.Conn the client uses
type conn interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	Select(ctx context.Context, dest any, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

var _ conn = driver.Conn(nil)
