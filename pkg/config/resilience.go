package config

import (
	"fmt"
	"time"
)

type ResilienceConfig struct {
	Retry          RetryConfig          `koanf:"retry" mapstructure:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker" mapstructure:"circuitbreaker"`
}

type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts" mapstructure:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff" mapstructure:"initialbackoff"`
}

type CircuitBreakerConfig struct {
	Name                string        `koanf:"name" mapstructure:"name"`
	MaxRequests         uint32        `koanf:"maxrequests" mapstructure:"maxrequests"`
	ConsecutiveFailures uint32        `koanf:"consecutivefailures" mapstructure:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent" mapstructure:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout" mapstructure:"opentimeout"`
}

func (c *ResilienceConfig) String() string {
	return section("Retry",
		"maxattempts", c.Retry.MaxAttempts,
		"initialbackoff", c.Retry.InitialBackoff,
	) + section("Circuit Breaker",
		"name", c.CircuitBreaker.Name,
		"maxrequests", c.CircuitBreaker.MaxRequests,
		"consecutivefailures", c.CircuitBreaker.ConsecutiveFailures,
		"errorratepercent", c.CircuitBreaker.ErrorRatePercent,
		"opentimeout", c.CircuitBreaker.OpenTimeout,
	)
}

func (c *ResilienceConfig) Validate() error {
	if c.Retry.MaxAttempts == 0 {
		return fmt.Errorf("retry.maxattempts must be greater than 0")
	}
	if c.Retry.InitialBackoff <= 0 {
		return fmt.Errorf("retry.initialbackoff must be greater than 0")
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("circuitbreaker.consecutivefailures must be greater than 0")
	}
	if c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100 {
		return fmt.Errorf("circuitbreaker.errorratepercent must be between 0 and 100")
	}
	if c.CircuitBreaker.OpenTimeout <= 0 {
		return fmt.Errorf("circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
