package vpntests

import (
	"net/http"
	"strings"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/mockvpn"
)

const (
	testPassword = "P4ssw0rd!!"

	// Every login URL the client opens in the browser is under this Guardian path.
	loginURLPath = "/api/v2/vpn/login"
)

func check(t *ldtest.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// resetAfterTest fails the test if either gateway saw a request it could not serve, then puts
// the gateways and the client back in their initial state.
func resetAfterTest(t *ldtest.T) {
	c := requireContext(t)
	for _, err := range c.mock.RouteErrors() {
		t.Errorf("mock gateway: %s", err)
	}
	c.mock.Reset()
	for _, g := range []*mockvpn.Gateway{c.guardian, c.fxa} {
		if g != nil {
			g.ClearRequests()
		}
	}
	check(t, driver(t).Reset())
}

// authenticateInApp signs in through the client's own FxA screens, which end on the home screen.
func authenticateInApp(t *ldtest.T) {
	d := driver(t)
	check(t, d.WaitForQueryAndClick(screenInitialize.GetStarted.Visible()))

	check(t, d.WaitForQuery(screenAuthenticationInApp.StartTextInput.Visible()))
	check(t, d.SetQueryProperty(screenAuthenticationInApp.StartTextInput, "text", mockvpn.TestUserEmail))
	check(t, d.WaitForQueryAndClick(screenAuthenticationInApp.StartButton.Visible()))

	check(t, d.WaitForQuery(screenAuthenticationInApp.SignInPasswordInput.Visible()))
	check(t, d.SetQueryProperty(screenAuthenticationInApp.SignInPasswordInput, "text", testPassword))
	check(t, d.WaitForQueryAndClick(screenAuthenticationInApp.SignInButton.Visible()))

	check(t, d.WaitForQuery(screenHome.ControllerTitle.Visible()))
}

func waitForInitialView(t *ldtest.T) {
	check(t, driver(t).WaitForQuery(screenInitialize.GetStarted.Visible()))
}

// mockInBrowserAuthentication waits for the client to open a login URL and then completes the
// login as the browser would.
func mockInBrowserAuthentication(t *ldtest.T) {
	d := driver(t)
	u, err := d.WaitForLastURL("containing "+loginURLPath, func(u string) bool {
		return strings.Contains(u, loginURLPath)
	})
	check(t, err)
	since := time.Now()
	check(t, d.CompleteOutOfBandAuth(u))
	requireRequestSince(t, requireContext(t).guardian, http.MethodPost, mockvpn.PathLoginVerify, since)
}

// requireRequestSince waits until the gateway has received a request for method and path at or
// after the given time.
func requireRequestSince(t *ldtest.T, g *mockvpn.Gateway, method, path string, since time.Time) *mockvpn.Request {
	t.Helper()
	to := mockvpn.RequestTo(method, path)
	r, err := g.AwaitRequest(method+" "+path, func(r *mockvpn.Request) bool {
		return to(r) && !r.Time.Before(since)
	}, driver(t).Timeout())
	check(t, err)
	return r
}

func waitForControllerTitle(t *ldtest.T, text string) {
	check(t, driver(t).WaitForProperty(screenHome.ControllerTitle, "text", text))
}
