package ch

import (
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type Config struct {
	// clickhouse connection config
	Hosts    []string `mapstructure:"hosts"`
	Database string   `mapstructure:"database"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	// default: 10s
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// ReadTimeout bounds a single read from the server
	// default: 5m
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// MaxOpenConns is the maximum number of open connections
	// default: 5
	MaxOpenConns int  `mapstructure:"max_open_conns"`
	Debug        bool `mapstructure:"debug"`
	// clickhouse settings (https://clickhouse.com/docs/en/operations/settings/settings)
	Settings clickhouse.Settings `mapstructure:"settings"`
}

func DefaultConfig() *Config {
	return &Config{
		Database:     "default",
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Minute,
		MaxOpenConns: 5,
		Debug:        false,
	}
}

// MergeDefaults fills zero values with defaults and returns the receiver
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaults.DialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = defaults.MaxOpenConns
	}
	return c
}

func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return ErrInvalidConfig("hosts are required")
	}
	if c.Username == "" {
		return ErrInvalidConfig("username is required")
	}
	if c.Password == "" {
		return ErrInvalidConfig("password is required")
	}
	if c.DialTimeout <= 0 {
		return ErrInvalidConfig("dial_timeout must be greater than 0")
	}
	if c.ReadTimeout < 0 {
		return ErrInvalidConfig("read_timeout cannot be negative")
	}
	if c.MaxOpenConns < 0 {
		return ErrInvalidConfig("max_open_conns cannot be negative")
	}
	return nil
}

// Options converts the configuration into clickhouse-go options
func (c *Config) Options() *clickhouse.Options {
	return &clickhouse.Options{
		Addr: c.Hosts,
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		MaxOpenConns: c.MaxOpenConns,
		Debug:        c.Debug,
		Settings:     c.Settings,
	}
}
