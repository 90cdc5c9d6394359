// Package config holds the configuration of the inventory service.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// StoreConfig selects the ProductStore implementation.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Store      StoreConfig             `koanf:"store"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Redis      config.RedisConfig      `koanf:"redis"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Metrics    config.MetricsConfig    `koanf:"metrics"`
	NATS       config.NATSConfig       `koanf:"nats"`
	RateLimit  config.RateLimitConfig  `koanf:"ratelimit"`
	Auth       config.AuthConfig       `koanf:"auth"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString("\n--- Store ---\n")
	b.WriteString(fmt.Sprintf("  store.driver: %s\n", c.Store.Driver))
	switch c.Store.Driver {
	case DriverPostgres:
		b.WriteString(c.Database.String())
	case DriverRedis:
		b.WriteString(c.Redis.String())
	}
	b.WriteString(c.GRPC.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Metrics.String())
	b.WriteString(c.RateLimit.String())
	b.WriteString(c.Auth.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks the sections the selected store driver and enabled features need.
func (c *Config) Validate() error {
	validators := []configloader.Validator{&c.HTTPServer, &c.Log, &c.PProf, &c.Shutdown, &c.GRPC,
		&c.Telemetry, &c.Metrics, &c.NATS, &c.RateLimit, &c.Auth}
	switch c.Store.Driver {
	case DriverPostgres:
		validators = append(validators, &c.Database)
	case DriverRedis:
		validators = append(validators, &c.Redis)
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q, expected one of %s, %s, %s",
			c.Store.Driver, DriverPostgres, DriverMemory, DriverRedis)
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
