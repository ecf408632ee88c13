package backlog

import "time"

// Config controls the pending-backlog sampler loop.
type Config struct {
	PollInterval time.Duration
	// MaxDevices caps the per-device gauge cardinality.
	MaxDevices int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 30 * time.Second,
		MaxDevices:   100,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.MaxDevices <= 0 {
		c.MaxDevices = defaults.MaxDevices
	}
	return c
}
