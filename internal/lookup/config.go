package lookup

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"cnes-dashboard/internal/common/config"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: config.DefaultLookupBaseURL,
		Timeout: 10 * time.Second,
	}
}

// LoadConfig reads the lookup section; unset values keep their defaults.
func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Lookup.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.Lookup.BaseURL, "/")
	}
	if t := cfg.LookupTimeout(); t > 0 {
		c.Timeout = t
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base url must be an absolute http(s) url")
	}
	return nil
}
