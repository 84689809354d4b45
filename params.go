package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mozilla/vpn-test-harness/data"
	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/servicedef"
)

type commandParams struct {
	inspectorURL     string
	port             int
	host             string
	timeout          time.Duration
	interval         time.Duration
	configFile       string
	filters          ldtest.RegexFilters
	skipFile         string
	noOutOfBandAuth  bool
	debug            bool
	debugAll         bool
	jUnitFile        string
	recordFailures   string
	authListenerHost string
	capabilities     framework.Capabilities
}

// harnessConfig is the format of the -config file. Command-line flags take precedence over it.
type harnessConfig struct {
	Timeout          string   `json:"timeout"`
	Interval         string   `json:"interval"`
	Capabilities     []string `json:"capabilities"`
	AuthListenerHost string   `json:"authListenerHost"`
}

func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.inspectorURL, "inspector", "", "WebSocket URL of the VPN client's inspector")
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the test harness")
	fs.IntVar(&c.port, "port", defaultPort, "port that the test harness will listen on (0 for any free port)")
	fs.DurationVar(&c.timeout, "timeout", defaultTimeout, "how long to wait for any UI state")
	fs.DurationVar(&c.interval, "interval", defaultInterval, "how often to check UI state while waiting")
	fs.StringVar(&c.configFile, "config", "", "JSON or YAML file with harness settings")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file with test patterns to skip, one per line")
	fs.BoolVar(&c.noOutOfBandAuth, "no-oob-auth", false,
		"the client cannot complete logins through its local redirect listener (e.g. WebAssembly build)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the IDs of failed tests to this file")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if c.inspectorURL == "" {
		fmt.Fprintln(errOut, "-inspector is required")
		fs.Usage()
		return false
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	c.capabilities = servicedef.AllCapabilities()
	if c.configFile != "" {
		if err := c.applyConfigFile(explicit); err != nil {
			fmt.Fprintln(errOut, err)
			return false
		}
	}
	if c.timeout <= 0 || c.interval <= 0 {
		fmt.Fprintf(errOut, "timeout and interval must be positive (got %s and %s)\n", c.timeout, c.interval)
		return false
	}
	if c.noOutOfBandAuth {
		c.capabilities = c.capabilities.Without(servicedef.CapabilityOutOfBandAuthRedirect)
	}
	if c.skipFile != "" {
		if err := c.loadSuppressions(); err != nil {
			fmt.Fprintln(errOut, err)
			return false
		}
	}
	return true
}

func (c *commandParams) applyConfigFile(explicit map[string]bool) error {
	var config harnessConfig
	if err := data.ReadJSONOrYAMLFile(c.configFile, &config); err != nil {
		return fmt.Errorf("cannot read config file: %w", err)
	}
	if config.Timeout != "" && !explicit["timeout"] {
		d, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config file: %w", err)
		}
		c.timeout = d
	}
	if config.Interval != "" && !explicit["interval"] {
		d, err := time.ParseDuration(config.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval in config file: %w", err)
		}
		c.interval = d
	}
	if config.Capabilities != nil {
		c.capabilities = config.Capabilities
	}
	c.authListenerHost = config.AuthListenerHost
	return nil
}

func (c *commandParams) loadSuppressions() error {
	file, err := os.Open(c.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	patterns, err := ldtest.ReadPatternList(file)
	if err != nil {
		return fmt.Errorf("cannot parse suppression file: %w", err)
	}
	c.filters.MustNotMatch = append(c.filters.MustNotMatch, patterns...)
	return nil
}
