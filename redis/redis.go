// Package redis provides a go-redis client and fetch operations that read a
// cached value from redis.
//
// Get and HGetAll return cache.FetchFunc values; Watch forces a refresh
// whenever a message arrives on an invalidation channel.
package redis

import (
	"context"

	"github.com/dailyyoga/refreshkit/logger"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a connected client. All go-redis commands are available directly.
type Redis interface {
	goredis.Cmdable

	// Subscribe subscribes to channels and waits for the server confirmation
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
	// PSubscribe subscribes to channel patterns and waits for the server confirmation
	PSubscribe(ctx context.Context, patterns ...string) (*goredis.PubSub, error)
	// PoolStats returns connection pool statistics
	PoolStats() *goredis.PoolStats
	// Unwrap returns the underlying go-redis client
	Unwrap() *goredis.Client
	// Close closes the client
	Close() error
}

// Nil is goredis.Nil, returned by commands when the key does not exist
var Nil = goredis.Nil

type defaultRedis struct {
	*goredis.Client
	logger logger.Logger
}

// New creates a redis client and verifies the connection with PING.
func New(log logger.Logger, cfg *Config) (Redis, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	client := goredis.NewClient(cfg.Options())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrConnection(err)
	}

	log.Info("redis connection established",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
	)

	return &defaultRedis{Client: client, logger: log}, nil
}

func (r *defaultRedis) Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error) {
	ps := r.Client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}

func (r *defaultRedis) PSubscribe(ctx context.Context, patterns ...string) (*goredis.PubSub, error) {
	ps := r.Client.PSubscribe(ctx, patterns...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}

func (r *defaultRedis) Unwrap() *goredis.Client {
	return r.Client
}

func (r *defaultRedis) Close() error {
	r.logger.Debug("closing redis connection")
	return r.Client.Close()
}
