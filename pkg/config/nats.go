package config

import (
	"fmt"
	"time"
)

// NATSConfig describes the NATS connection and the JetStream stream events are published to.
// Publishing is skipped when Enabled is false.
type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Stream  string        `koanf:"stream"`
}

func (c *NATSConfig) String() string {
	return section("NATS", "enabled", c.Enabled, "url", c.Url, "timeout", c.Timeout, "stream", c.Stream)
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := c.ValidateConnection(); err != nil {
		return err
	}
	if c.Stream == "" {
		return fmt.Errorf("NATS stream is not configured")
	}
	return nil
}

// ValidateConnection checks only the settings needed to dial, for consumers that always connect.
func (c *NATSConfig) ValidateConnection() error {
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	return nil
}
