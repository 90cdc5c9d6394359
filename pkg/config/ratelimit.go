package config

import "fmt"

// RateLimitConfig describes the token bucket applied to the HTTP API.
// A non-positive RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

func (c *RateLimitConfig) String() string {
	return section("Rate Limit", "rps", c.RPS, "burst", c.Burst)
}

func (c *RateLimitConfig) Validate() error {
	if c.RPS > 0 && c.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be greater than 0 when rps is set")
	}
	return nil
}
