package config

import (
	"fmt"
	"time"
)

// RedisConfig describes the Redis connection used by the redis store.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"keyPrefix"`
	Timeout   time.Duration `koanf:"timeout"`
}

func (c *RedisConfig) String() string {
	return section("Redis", "addr", c.Addr, "db", c.DB, "keyPrefix", c.KeyPrefix, "timeout", c.Timeout)
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	if c.DB < 0 {
		return fmt.Errorf("invalid redis db index: %d", c.DB)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis timeout is not configured")
	}
	return nil
}
