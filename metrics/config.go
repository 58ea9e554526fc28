package metrics

import "time"

// Config is the configuration for the refresh metrics
type Config struct {
	// Namespace prefixes every metric name
	// default: "refreshkit"
	Namespace string `mapstructure:"namespace"`
	// Subsystem is placed between namespace and metric name
	// default: "cache"
	Subsystem string `mapstructure:"subsystem"`
	// Buckets are the refresh duration histogram buckets in seconds
	// default: 5ms doubling up to one minute
	Buckets []float64 `mapstructure:"buckets"`
}

// DefaultConfig returns the default configuration for the refresh metrics
func DefaultConfig() *Config {
	return &Config{
		Namespace: "refreshkit",
		Subsystem: "cache",
		Buckets:   defaultBuckets(),
	}
}

// MergeDefaults merges the default configuration with the given configuration
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.Namespace == "" {
		c.Namespace = defaults.Namespace
	}
	if c.Subsystem == "" {
		c.Subsystem = defaults.Subsystem
	}
	if len(c.Buckets) == 0 {
		c.Buckets = defaults.Buckets
	}
	return c
}

// Validate validates the configuration for the refresh metrics
func (c *Config) Validate() error {
	for i := 1; i < len(c.Buckets); i++ {
		if c.Buckets[i] <= c.Buckets[i-1] {
			return ErrInvalidConfig("buckets must be strictly increasing")
		}
	}
	return nil
}

func defaultBuckets() []float64 {
	out := make([]float64, 0, 12)
	for b := 5 * time.Millisecond; b <= time.Minute; b *= 2 {
		out = append(out, b.Seconds())
	}
	return out
}
