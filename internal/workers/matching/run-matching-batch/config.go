package runmatchingbatch

import (
	"time"

	"automatch-workers/internal/common/config"
)

type Config struct {
	MaxJobsActive int
	Timeout       time.Duration
}

// LoadConfig reads the worker section. Runs are long, so the default timeout is generous.
func LoadConfig(wc config.WorkerConfig) *Config {
	c := &Config{
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
	}
	if c.MaxJobsActive <= 0 {
		c.MaxJobsActive = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Minute
	}
	return c
}
