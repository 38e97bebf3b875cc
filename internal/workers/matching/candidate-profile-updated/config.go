package candidateprofileupdated

import (
	"time"

	"automatch-workers/internal/common/config"
)

type Config struct {
	MaxJobsActive int
	Timeout       time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	c := &Config{
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
	}
	if c.MaxJobsActive <= 0 {
		c.MaxJobsActive = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}
