// Package ldtest is a small test runner that behaves much like Go's testing package, but runs as
// ordinary application code so the harness can ship as one binary. Besides nested scopes it
// offers mocha-style BeforeEach/AfterEach hooks, capability-based skipping, and console and
// JUnit reporting.
package ldtest
