package config

import (
	"fmt"
	"time"
)

// AuthConfig points the bearer token check at an identity provider.
// When disabled the catalog management endpoints are open.
type AuthConfig struct {
	Enabled     bool          `koanf:"enabled"`
	JwksURL     string        `koanf:"jwksurl"`
	Issuer      string        `koanf:"issuer"`
	ClientID    string        `koanf:"clientid"`
	MinInterval time.Duration `koanf:"mininterval"`
}

func (c *AuthConfig) String() string {
	if !c.Enabled {
		return section("Auth", "enabled", false)
	}
	return section("Auth",
		"enabled", true,
		"jwksUrl", c.JwksURL,
		"issuer", c.Issuer,
		"clientId", c.ClientID,
		"minInterval", c.MinInterval,
	)
}

func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JwksURL == "" {
		return fmt.Errorf("IdP JWKS URL cannot be empty")
	}
	if c.Issuer == "" {
		return fmt.Errorf("IdP issuer cannot be empty")
	}
	if c.ClientID == "" {
		return fmt.Errorf("IdP client ID cannot be empty")
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("IdP minimum interval must be greater than zero")
	}
	return nil
}
