package config

import (
	"fmt"
	"time"
)

type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	return section("NATS Subscriber",
		"stream", c.Stream,
		"subject", c.Subject,
		"consumer", c.Consumer,
		"batch", c.Batch,
		"timeout", c.Timeout,
		"interval", c.Interval,
		"workers", c.Workers,
	)
}

func (c *SubscriberConfig) Validate() error {
	switch {
	case c.Stream == "":
		return fmt.Errorf("subscriber: stream is not configured")
	case c.Subject == "":
		return fmt.Errorf("subscriber: subject is not configured")
	case c.Consumer == "":
		return fmt.Errorf("subscriber: consumer is not configured")
	case c.Batch <= 0:
		return fmt.Errorf("subscriber: batch must be greater than zero")
	case c.Timeout <= 0:
		return fmt.Errorf("subscriber: timeout must be greater than zero")
	case c.Interval <= 0:
		return fmt.Errorf("subscriber: interval must be greater than zero")
	case c.Workers <= 0:
		return fmt.Errorf("subscriber: workers must be greater than zero")
	}
	return nil
}
