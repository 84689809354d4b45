package uidriver

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
	"github.com/mozilla/vpn-test-harness/servicedef"
)

// DefaultTimeout bounds every wait that does not set its own.
const DefaultTimeout = time.Second * 30

// DriverConfig customizes a Driver.
type DriverConfig struct {
	// Timeout is the default for waits; zero means DefaultTimeout.
	Timeout time.Duration
	// Interval is the default poll interval; zero means helpers.DefaultPollInterval.
	Interval time.Duration
	// AuthListenerHost is the host of the client's local authentication listener. It defaults to
	// 127.0.0.1, which is where the client listens.
	AuthListenerHost string
	// HTTPClient is used for CompleteOutOfBandAuth; it defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     framework.Logger
}

// Driver drives the application under test through its inspector. Every operation that waits is
// a Poll bounded by a timeout, so a UI state that never appears fails the test instead of
// hanging it.
type Driver struct {
	inspector  Inspector
	timeout    time.Duration
	interval   time.Duration
	authHost   string
	httpClient *http.Client
	logger     framework.Logger
}

func NewDriver(inspector Inspector, config DriverConfig) *Driver {
	d := &Driver{
		inspector:  inspector,
		timeout:    config.Timeout,
		interval:   config.Interval,
		authHost:   config.AuthListenerHost,
		httpClient: config.HTTPClient,
		logger:     config.Logger,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.interval <= 0 {
		d.interval = helpers.DefaultPollInterval
	}
	if d.authHost == "" {
		d.authHost = "127.0.0.1"
	}
	if d.httpClient == nil {
		d.httpClient = http.DefaultClient
	}
	if d.logger == nil {
		d.logger = framework.NullLogger()
	}
	return d
}

// WithTimeout returns a copy of the driver with a different default timeout.
func (d *Driver) WithTimeout(timeout time.Duration) *Driver {
	c := *d
	c.timeout = timeout
	return &c
}

// WithLogger returns a copy of the driver that logs to logger.
func (d *Driver) WithLogger(logger framework.Logger) *Driver {
	c := *d
	c.logger = logger
	return &c
}

func (d *Driver) Timeout() time.Duration { return d.timeout }

func (d *Driver) command(name string, args ...string) (servicedef.InspectorResponse, error) {
	resp, err := d.inspector.Command(name, args...)
	if err != nil {
		d.logger.Printf("inspector %s %v: %s", name, args, err)
	}
	return resp, err
}

// Matches performs a single probe: it reports whether the query holds right now.
func (d *Driver) Matches(q Queryable) (bool, error) {
	resp, err := d.command(servicedef.CommandQuery, q.Expression())
	if err != nil {
		return false, err
	}
	return resp.Value.BoolValue(), nil
}

// WaitForQuery polls until the query holds.
func (d *Driver) WaitForQuery(q Queryable, options ...WaitOption) error {
	c := d.waitConfig(options)
	_, err := helpers.Poll(q.String(), func() (struct{}, bool, error) {
		ok, err := d.Matches(q)
		return struct{}{}, ok, err
	}, c.interval, c.timeout)
	return err
}

// WaitForQueryAndClick waits for the query to hold and then clicks its element.
func (d *Driver) WaitForQueryAndClick(q Queryable, options ...WaitOption) error {
	if err := d.WaitForQuery(q, options...); err != nil {
		return err
	}
	return d.ClickOnQuery(q)
}

// ClickOnQuery clicks the element without waiting for it.
func (d *Driver) ClickOnQuery(q Queryable) error {
	_, err := d.command(servicedef.CommandClick, q.Expression())
	return err
}

// GetQueryProperty reads a property of the element as a string.
func (d *Driver) GetQueryProperty(q Queryable, name string) (string, error) {
	resp, err := d.command(servicedef.CommandProperty, q.Expression(), name)
	if err != nil {
		return "", err
	}
	if s, ok := resp.Value.AsOptionalString().Get(); ok {
		return s, nil
	}
	return resp.Value.JSONString(), nil
}

// SetQueryProperty changes a property of the element.
func (d *Driver) SetQueryProperty(q Queryable, name string, value string) error {
	_, err := d.command(servicedef.CommandSetProperty, q.Expression(), name, value)
	return err
}

func (d *Driver) getIntProperty(q Queryable, name string) (int, error) {
	s, err := d.GetQueryProperty(q, name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("property %q of %s is not a number: %q", name, q, s)
	}
	return int(f), nil
}

// ScrollToQuery waits for the container query to hold, scrolls that flickable container so that
// target is in view, then waits for target. The container is scrolled to the top first and then
// moved to the target's y position, capped at the end of the content.
func (d *Driver) ScrollToQuery(container Query, target Query, options ...WaitOption) error {
	if err := d.WaitForQuery(container, options...); err != nil {
		return err
	}
	flickable := container.Selector()
	if err := d.SetQueryProperty(flickable, "contentY", "0"); err != nil {
		return err
	}
	if err := d.WaitForQuery(target.Selector(), options...); err != nil {
		return err
	}
	y, err := d.getIntProperty(target.Selector(), "y")
	if err != nil {
		return err
	}
	height, err := d.getIntProperty(flickable, "height")
	if err != nil {
		return err
	}
	contentHeight, err := d.getIntProperty(flickable, "contentHeight")
	if err != nil {
		return err
	}
	scrollTo := max(0, min(y, contentHeight-height))
	if err := d.SetQueryProperty(flickable, "contentY", strconv.Itoa(scrollTo)); err != nil {
		return err
	}
	return d.WaitForQuery(target, options...)
}

// WaitForCondition polls an arbitrary condition with the driver's defaults.
func (d *Driver) WaitForCondition(description string, condition func() (bool, error), options ...WaitOption) error {
	c := d.waitConfig(options)
	_, err := helpers.Poll(description, func() (struct{}, bool, error) {
		ok, err := condition()
		return struct{}{}, ok, err
	}, c.interval, c.timeout)
	return err
}

// WaitForProperty polls until a property of the element has the expected value.
func (d *Driver) WaitForProperty(q Queryable, name, expected string, options ...WaitOption) error {
	return d.WaitForCondition(fmt.Sprintf("%s.%s == %q", q, name, expected), func() (bool, error) {
		v, err := d.GetQueryProperty(q, name)
		return v == expected, err
	}, options...)
}

// GetLastURL returns the last URL the application asked the system to open.
func (d *Driver) GetLastURL() (string, error) {
	resp, err := d.command(servicedef.CommandLastURL)
	if err != nil {
		return "", err
	}
	return resp.Value.StringValue(), nil
}

// WaitForLastURL polls GetLastURL until match accepts it, and returns that URL.
func (d *Driver) WaitForLastURL(description string, match func(string) bool, options ...WaitOption) (string, error) {
	c := d.waitConfig(options)
	return helpers.Poll("last URL "+description, func() (string, bool, error) {
		u, err := d.GetLastURL()
		return u, err == nil && match(u), err
	}, c.interval, c.timeout)
}

// ForceConnectionStabilityStatus overrides what the application believes about its connection.
func (d *Driver) ForceConnectionStabilityStatus(status string) error {
	_, err := d.command(servicedef.CommandForceConnectionStability, status)
	return err
}

func (d *Driver) IsFeatureFlippedOn(feature string) (bool, error) {
	resp, err := d.command(servicedef.CommandIsFeatureFlippedOn, feature)
	if err != nil {
		return false, err
	}
	return resp.Value.BoolValue(), nil
}

func (d *Driver) FlipFeatureOn(feature string) error {
	_, err := d.command(servicedef.CommandFlipOnFeature, feature)
	return err
}

func (d *Driver) FlipFeatureOff(feature string) error {
	_, err := d.command(servicedef.CommandFlipOffFeature, feature)
	return err
}

// EnsureFeature makes a feature flag have the wanted state, flipping it only if it differs.
func (d *Driver) EnsureFeature(feature string, on bool) error {
	current, err := d.IsFeatureFlippedOn(feature)
	if err != nil {
		return err
	}
	if current == on {
		return nil
	}
	if on {
		return d.FlipFeatureOn(feature)
	}
	return d.FlipFeatureOff(feature)
}

// Activate turns the VPN on without going through the UI.
func (d *Driver) Activate() error {
	_, err := d.command(servicedef.CommandActivate)
	return err
}

// Deactivate turns the VPN off without going through the UI.
func (d *Driver) Deactivate() error {
	_, err := d.command(servicedef.CommandDeactivate)
	return err
}

// Reset returns the application to its initial, logged-out state.
func (d *Driver) Reset() error {
	_, err := d.command(servicedef.CommandReset)
	return err
}

// CompleteOutOfBandAuth stands in for the browser at the end of a login: it calls the
// application's local authentication listener, whose port is the "port" parameter of lastURL,
// with an authorization code.
func (d *Driver) CompleteOutOfBandAuth(lastURL string) error {
	u, err := url.Parse(lastURL)
	if err != nil {
		return fmt.Errorf("cannot parse login URL %q: %w", lastURL, err)
	}
	port, err := strconv.Atoi(u.Query().Get("port"))
	if err != nil || port <= 0 {
		return fmt.Errorf("login URL %q has no valid port parameter", lastURL)
	}
	target := "http://" + net.JoinHostPort(d.authHost, strconv.Itoa(port)) + "/?code=the_code"
	d.logger.Printf("Completing authentication via %s", target)
	resp, err := d.httpClient.Get(target)
	if err != nil {
		return fmt.Errorf("unable to reach the authentication listener at %s: %w", target, err)
	}
	_ = resp.Body.Close()
	return nil
}
