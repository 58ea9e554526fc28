package cache

import "time"

// Config holds configuration for a ProactiveCache built by NewFromConfig
type Config struct {
	// Name is used for logging purposes to identify the cache
	Name string `mapstructure:"name"`
	// Period is the interval between scheduled refreshes
	// default: 5 * time.Minute
	Period time.Duration `mapstructure:"period"`
	// FetchTimeout bounds each fetch, 0 disables it
	// default: 30 * time.Second
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// Spec is an optional cron expression ("0 */5 * * * *", "@every 1m").
	// When set it replaces the Period grid for scheduled refreshes.
	Spec string `mapstructure:"spec"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Period:       5 * time.Minute,
		FetchTimeout: 30 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults and returns the receiver
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.Period == 0 {
		c.Period = defaults.Period
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = defaults.FetchTimeout
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Period <= 0 {
		return ErrInvalidPeriod(c.Period)
	}
	if c.FetchTimeout < 0 {
		return ErrInvalidFetchTimeout(c.FetchTimeout)
	}
	if c.Spec != "" {
		if _, err := ParseSchedule(c.Spec); err != nil {
			return err
		}
	}
	return nil
}
