package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/shopcart/pkg/config"
)

// NotifierConfig is the configuration of the notification worker.
type NotifierConfig struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *NotifierConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *NotifierConfig) Validate() error {
	if !c.Nats.Enabled {
		return fmt.Errorf("the notifier requires nats.enabled")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Subscriber.Validate(); err != nil {
		return err
	}
	if err := c.Probes.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	return nil
}
