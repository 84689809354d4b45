// Package framework contains the low-level pieces of the VPN test harness that do not know
// anything about subscriptions: logging, capabilities, and (in subpackages) the HTTP listener
// that hosts the emulated services, the polling helpers, and the test runner.
//
// The general model is:
//
// 1. The VPN client under test is started externally, pointed at the base URLs of the
// emulated services that the harness hosts (see harness.TestHarness).
//
// 2. The harness drives and observes the client through its inspector connection (see the
// uidriver package), and never assumes that anything happens synchronously: every observation
// is a poll with a timeout (see helpers.Poll).
//
// 3. Tests run inside ldtest scopes, which behave like Go's testing.T but are ordinary
// application code so that the harness can be shipped as a single binary.
package framework
