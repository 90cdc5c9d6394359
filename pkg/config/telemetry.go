package config

import (
	"fmt"
	"time"
)

// TelemetryConfig controls trace export. Tracing is a no-op when Enabled is false.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

type TracesConfig struct {
	OtlpHttp    OtlpHttpConfig `koanf:"otlphttp"`
	SampleRatio float64        `koanf:"sampleratio"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	if !c.Enabled {
		return section("Telemetry", "enabled", false)
	}
	return section("Telemetry",
		"enabled", true,
		"traces.otlphttp.endpoint", c.Traces.OtlpHttp.Endpoint,
		"traces.otlphttp.insecure", c.Traces.OtlpHttp.Insecure,
		"traces.otlphttp.timeout", c.Traces.OtlpHttp.Timeout,
		"traces.sampleratio", c.Traces.SampleRatio,
	)
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}
	if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be between 0 and 1")
	}
	return nil
}
