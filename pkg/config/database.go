package config

import (
	"fmt"
	"strings"
	"time"
)

// DatabaseConfig describes the PostgreSQL connection used by the pg store.
type DatabaseConfig struct {
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	MaxConns int32         `koanf:"maxConns"`
	Migrate  bool          `koanf:"migrate"`
}

func (c *DatabaseConfig) String() string {
	return section("Database",
		"url", MaskURL(c.URL),
		"timeout", c.Timeout,
		"maxConns", c.MaxConns,
		"migrate", c.Migrate,
	)
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("database maxConns must not be negative: %d", c.MaxConns)
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides the user info part of a connection URL.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		return "****"
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		return scheme + "://****@" + rest[i+1:]
	}
	return url
}
