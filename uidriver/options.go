package uidriver

import (
	"time"

	"github.com/mozilla/vpn-test-harness/framework/helpers"
)

type waitConfig struct {
	timeout  time.Duration
	interval time.Duration
}

// WaitOption changes how a single wait polls.
type WaitOption helpers.ConfigOption[waitConfig]

// Timeout overrides the driver's default timeout for one wait.
func Timeout(d time.Duration) WaitOption {
	return helpers.ConfigOptionFunc[waitConfig](func(c *waitConfig) error {
		c.timeout = d
		return nil
	})
}

// Interval overrides the driver's default poll interval for one wait.
func Interval(d time.Duration) WaitOption {
	return helpers.ConfigOptionFunc[waitConfig](func(c *waitConfig) error {
		c.interval = d
		return nil
	})
}

func (d *Driver) waitConfig(options []WaitOption) waitConfig {
	c := waitConfig{timeout: d.timeout, interval: d.interval}
	_ = helpers.ApplyOptions(&c, options...)
	return c
}
