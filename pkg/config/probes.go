package config

import (
	"fmt"
	"time"
)

// ProbesConfig describes the file based readiness and liveness probes of workers without an HTTP API.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

const (
	defaultReadinessFileName = "/tmp/ready"
	defaultLivenessFileName  = "/tmp/live"
	defaultLivenessInterval  = 20 * time.Second
)

func (c *ProbesConfig) String() string {
	return section("Probes",
		"readinessfilename", c.ReadinessFileName,
		"livenessfilename", c.LivenessFileName,
		"livenessinterval", c.LivenessInterval,
	)
}

// Validate fills in defaults for unset values.
func (c *ProbesConfig) Validate() error {
	if c.ReadinessFileName == "" {
		c.ReadinessFileName = defaultReadinessFileName
	}
	if c.LivenessFileName == "" {
		c.LivenessFileName = defaultLivenessFileName
	}
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = defaultLivenessInterval
	}
	if c.ReadinessFileName == c.LivenessFileName {
		return fmt.Errorf("readiness and liveness probes must use different files: %s", c.LivenessFileName)
	}
	return nil
}
