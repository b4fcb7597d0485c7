package postprocess

import (
	"time"

	appconfig "github.com/brpag/gateway/internal/config"
)

// Config controls the post-processing worker loop.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
	RetryBackoff time.Duration
	MaxAttempts  int
	// Lease is how long a claimed job stays invisible before it can be
	// reclaimed by another worker.
	Lease time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		PollInterval: 2 * time.Second,
		RetryBackoff: 30 * time.Second,
		MaxAttempts:  5,
		Lease:        time.Minute,
	}
}

// FromApp derives the worker config from the process configuration.
func FromApp(cfg appconfig.Config) Config {
	return Config{
		BatchSize:    cfg.Worker.BatchSize,
		PollInterval: cfg.Worker.PollInterval,
		RetryBackoff: cfg.Worker.RetryBackoff,
		MaxAttempts:  cfg.Worker.MaxAttempts,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.Lease <= 0 {
		c.Lease = defaults.Lease
	}
	return c
}
