package config

import (
	"fmt"
	"time"
)

// GrpcClientConfig describes how inventoryctl reaches the gRPC API.
type GrpcClientConfig struct {
	Addr       string           `koanf:"addr" mapstructure:"addr"`
	Timeout    time.Duration    `koanf:"timeout" mapstructure:"timeout"`
	Resilience ResilienceConfig `koanf:"resilience" mapstructure:"resilience"`
}

func (c *GrpcClientConfig) String() string {
	return section("gRPC Client", "addr", c.Addr, "timeout", c.Timeout) + c.Resilience.String()
}

func (c *GrpcClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("gRPC address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gRPC timeout is not configured")
	}
	return c.Resilience.Validate()
}
