package fetcher

import (
	"time"

	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/models"
)

type Config struct {
	Timeout  time.Duration
	PageSize int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:  30 * time.Second,
		PageSize: models.DefaultPageSize,
	}
	if cfg == nil {
		return c
	}
	if t := cfg.BackendTimeout(); t > 0 {
		c.Timeout = t
	}
	if cfg.Backend.PageSize > 0 {
		c.PageSize = cfg.Backend.PageSize
	}
	return c
}
