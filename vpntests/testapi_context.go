package vpntests

import (
	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/mockvpn"
	"github.com/mozilla/vpn-test-harness/uidriver"
)

// VPNTestContext is what every test in the suite can reach through T.Context().
type VPNTestContext struct {
	driver   *uidriver.Driver
	mock     *mockvpn.Context
	guardian *mockvpn.Gateway
	fxa      *mockvpn.Gateway
}

func requireContext(t *ldtest.T) VPNTestContext {
	if c, ok := t.Context().(VPNTestContext); ok {
		return c
	}
	panic("VPNTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

// driver returns the suite's driver, logging to the test's own output.
func driver(t *ldtest.T) *uidriver.Driver {
	return requireContext(t).driver.WithLogger(t.DebugLogger())
}

func mock(t *ldtest.T) *mockvpn.Context {
	return requireContext(t).mock
}
