// Package config holds the configuration of the stock notifier.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// NotifierConfig controls when a stock change is reported as low stock.
type NotifierConfig struct {
	LowStockThreshold int32 `koanf:"lowStockThreshold"`
}

type Config struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Notifier   NotifierConfig          `koanf:"notifier"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Metrics    config.MetricsConfig    `koanf:"metrics"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString("\n--- Notifier ---\n")
	b.WriteString(fmt.Sprintf("  lowStockThreshold: %d\n", c.Notifier.LowStockThreshold))
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Metrics.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Nats.ValidateConnection(); err != nil {
		return err
	}
	if err := c.Subscriber.Validate(); err != nil {
		return err
	}
	if c.Notifier.LowStockThreshold < 0 {
		return fmt.Errorf("notifier lowStockThreshold must not be negative: %d", c.Notifier.LowStockThreshold)
	}
	if err := c.Probes.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	return nil
}
