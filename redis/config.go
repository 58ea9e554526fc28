package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config is the configuration for the redis client
type Config struct {
	// Addr is the host:port of the redis server
	Addr string `mapstructure:"addr"`
	// Username is used for ACL authentication (redis 6+)
	Username string `mapstructure:"username"`
	// Password is the password of the redis server
	Password string `mapstructure:"password"`
	// DB is the database index
	DB int `mapstructure:"db"`
	// PoolSize is the maximum number of socket connections
	// default: 10
	PoolSize int `mapstructure:"pool_size"`
	// MinIdleConns is the minimum number of idle connections
	MinIdleConns int `mapstructure:"min_idle_conns"`
	// MaxRetries is the maximum number of retries before giving up
	MaxRetries int `mapstructure:"max_retries"`
	// DialTimeout is the timeout for establishing new connections
	// default: 5 * time.Second
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// ReadTimeout is the timeout for socket reads
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the timeout for socket writes
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the default configuration for redis
func DefaultConfig() *Config {
	return &Config{
		Addr:        "localhost:6379",
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
	}
}

// Validate validates the configuration for redis
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidConfig("addr is required")
	}
	if c.DB < 0 {
		return ErrInvalidConfig("db must be >= 0")
	}
	if c.PoolSize < 0 {
		return ErrInvalidConfig("pool_size must be >= 0")
	}
	if c.MinIdleConns < 0 {
		return ErrInvalidConfig("min_idle_conns must be >= 0")
	}
	if c.MaxRetries < 0 {
		return ErrInvalidConfig("max_retries must be >= 0")
	}
	if c.DialTimeout < 0 {
		return ErrInvalidConfig("dial_timeout must be >= 0")
	}
	if c.ReadTimeout < 0 {
		return ErrInvalidConfig("read_timeout must be >= 0")
	}
	if c.WriteTimeout < 0 {
		return ErrInvalidConfig("write_timeout must be >= 0")
	}
	return nil
}

// MergeDefaults merges the default configuration with the given configuration
// Addr is left alone so that a missing address still fails validation.
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.PoolSize == 0 {
		c.PoolSize = defaults.PoolSize
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaults.DialTimeout
	}
	return c
}

// Options converts the configuration into go-redis options
func (c *Config) Options() *goredis.Options {
	return &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}
