package vpntests

import (
	"fmt"
	"os"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/mockvpn"
	"github.com/mozilla/vpn-test-harness/servicedef"
	"github.com/mozilla/vpn-test-harness/uidriver"
)

// SuiteConfig is everything RunVPNTestSuite needs. The gateways must already be reachable by the
// client, and must serve Context.
type SuiteConfig struct {
	Driver       *uidriver.Driver
	Context      *mockvpn.Context
	Guardian     *mockvpn.Gateway
	FxA          *mockvpn.Gateway
	Capabilities framework.Capabilities
	Filters      ldtest.RegexFilters
	TestLogger   ldtest.TestLogger
}

func RunVPNTestSuite(config SuiteConfig) ldtest.Results {
	fmt.Println("Running VPN subscription test suite")
	fmt.Println()
	ldtest.PrintFilterDescription(os.Stdout, config.Filters, servicedef.AllCapabilities(), config.Capabilities)

	testConfig := ldtest.TestConfiguration{
		Filter:       config.Filters.Match,
		Capabilities: config.Capabilities,
		TestLogger:   config.TestLogger,
		Context: VPNTestContext{
			driver:   config.Driver,
			mock:     config.Context,
			guardian: config.Guardian,
			fxa:      config.FxA,
		},
	}

	return ldtest.Run(testConfig, doAllSubscriptionTests)
}

func doAllSubscriptionTests(t *ldtest.T) {
	t.Run("Subscription manager", func(t *ldtest.T) {
		t.Run("Expired subscription", doExpiredSubscriptionTests)
	})
	t.Run("Subscription view", doSubscriptionViewTests)
}
