package ch

import (
	"context"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
)

// defaultClient is the default implementation of the Client interface
type defaultClient struct {
	logger logger.Logger
	conn   conn

	closed bool
	mu     sync.RWMutex
}

// NewClient creates a new ClickHouse client and verifies the connection
func NewClient(config *Config, log logger.Logger) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.MergeDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	conn, err := clickhouse.Open(config.Options())
	if err != nil {
		return nil, ErrConnection(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, ErrConnection(err)
	}

	log.Info("clickhouse client initialized",
		zap.Strings("hosts", config.Hosts),
		zap.String("database", config.Database),
	)

	return newClient(conn, log), nil
}

func newClient(c conn, log logger.Logger) *defaultClient {
	return &defaultClient{conn: c, logger: log}
}

// Query executes a ClickHouse query and returns driver.Rows
func (c *defaultClient) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}

	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		c.logger.Error("query failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, ErrQuery(err)
	}

	return rows, nil
}

// QueryRow executes a query that is expected to return at most one row.
// On a closed client the returned row reports ErrConnectionClosed.
func (c *defaultClient) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errRow{err: ErrConnectionClosed}
	}

	return c.conn.QueryRow(ctx, query, args...)
}

// Select executes a query and scans every row into dest
func (c *defaultClient) Select(ctx context.Context, dest any, query string, args ...any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}

	if err := c.conn.Select(ctx, dest, query, args...); err != nil {
		c.logger.Error("select failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return ErrQuery(err)
	}
	return nil
}

// Ping checks the connection
func (c *defaultClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	return c.conn.Ping(ctx)
}

// Close closes the client
func (c *defaultClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.conn.Close(); err != nil {
		c.logger.Error("failed to close clickhouse connection", zap.Error(err))
		return err
	}

	c.logger.Info("clickhouse client shutdown complete")
	return nil
}

// errRow is a driver.Row that only reports an error
type errRow struct{ err error }

func (r errRow) Err() error           { return r.err }
func (r errRow) Scan(...any) error    { return r.err }
func (r errRow) ScanStruct(any) error { return r.err }
