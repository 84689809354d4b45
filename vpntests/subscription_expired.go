package vpntests

import (
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/mockvpn"
	"github.com/mozilla/vpn-test-harness/servicedef"
)

func doExpiredSubscriptionTests(t *ldtest.T) {
	t.AfterEach(resetAfterTest)

	t.Run("prompts SubscriptionNeeded if subscription is inactive on connection", func(t *ldtest.T) {
		d := driver(t)
		authenticateInApp(t)

		setAccount(t, mockvpn.InactiveUserData())

		check(t, d.WaitForQuery(screenHome.ControllerTitle.Visible()))
		check(t, d.ClickOnQuery(screenHome.ControllerToggle.Visible()))

		check(t, d.WaitForQuery(screenSubscriptionNeeded.View.Visible()))
	})

	t.Run("returns to main screen after web subscription flow", func(t *ldtest.T) {
		d := driver(t)
		authenticateInApp(t)

		setAccount(t, mockvpn.InactiveUserData())

		check(t, d.WaitForQuery(screenHome.ControllerTitle.Visible()))
		check(t, d.ClickOnQuery(screenHome.ControllerToggle.Visible()))
		check(t, d.WaitForQuery(screenSubscriptionNeeded.View.Visible()))

		check(t, d.WaitForQueryAndClick(screenSubscriptionNeeded.Button.Visible()))

		// the subscription is completed in the browser; by the time the client is called back,
		// Guardian reports it as active
		setAccount(t, mockvpn.ActiveUserData())
		mockInBrowserAuthentication(t)

		check(t, d.WaitForQuery(screenHome.ControllerTitle.Visible()))
		waitForControllerTitle(t, "VPN is off")
	}, ldtest.Requires(servicedef.CapabilityOutOfBandAuthRedirect))

	t.Run("keeps connecting if subscription check fails", func(t *ldtest.T) {
		authenticateInApp(t)

		setAccount(t, mockvpn.InactiveUserData())
		check(t, mock(t).SetStatus(mockvpn.Guardian, http.MethodGet, mockvpn.PathAccount,
			http.StatusInternalServerError))

		check(t, driver(t).Activate())
		waitForControllerTitle(t, "VPN is on")
	})

	t.Run("goes to SubscriptionNeeded when toggled off in no-signal state after expiry", func(t *ldtest.T) {
		d := driver(t)
		authenticateInApp(t)

		check(t, d.WaitForQuery(screenHome.ControllerTitle.Visible()))
		check(t, d.ClickOnQuery(screenHome.ControllerToggle.Visible()))
		waitForControllerTitle(t, "VPN is on")

		setAccount(t, mockvpn.InactiveUserData())

		check(t, d.ForceConnectionStabilityStatus(servicedef.ConnectionNoSignal))

		check(t, d.ClickOnQuery(screenHome.ControllerToggle.Visible()))
		check(t, d.WaitForQuery(screenSubscriptionNeeded.View.Visible()))
	})
}

// setAccount changes the account Guardian reports from now on. The registered device is still
// added to it when it is served.
func setAccount(t *ldtest.T, account ldvalue.Value) {
	t.Helper()
	check(t, mock(t).SetBody(mockvpn.Guardian, http.MethodGet, mockvpn.PathAccount, account))
}
