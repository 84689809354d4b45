package vpntests

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/data"
	"github.com/mozilla/vpn-test-harness/framework/ldtest"
	"github.com/mozilla/vpn-test-harness/mockvpn"
	"github.com/mozilla/vpn-test-harness/servicedef"
)

const (
	accountURLPrefix = "https://accounts.stage.mozaws.net"
	accountURLEmail  = "?email=" + mockvpn.TestUserEmail
)

// SubscriptionViewCase is one row of the "cases" list in data-files/subscription-view.yaml. Parts left out of a row
// are taken from the default yearly web subscription.
type SubscriptionViewCase struct {
	Name                   string        `json:"name"`
	Plan                   ldvalue.Value `json:"plan"`
	Payment                ldvalue.Value `json:"payment"`
	Subscription           ldvalue.Value `json:"subscription"`
	ManageSubscriptionLink string        `json:"manageSubscriptionLink"`
}

// Details builds the subscriptionDetails body for the row.
func (c SubscriptionViewCase) Details() ldvalue.Value {
	defaults := mockvpn.YearlySubscriptionDetails()
	pick := func(v ldvalue.Value, key string) ldvalue.Value {
		if v.IsNull() {
			return defaults.GetByKey(key)
		}
		return v
	}
	return mockvpn.SubscriptionDetails(
		pick(c.Plan, "plan"),
		pick(c.Payment, "payment"),
		pick(c.Subscription, "subscription"),
	)
}

func loadSubscriptionViewCases() ([]SubscriptionViewCase, error) {
	source, err := data.LoadDataFile("subscription-view.yaml")
	if err != nil {
		return nil, err
	}
	var file struct {
		Cases []SubscriptionViewCase `json:"cases"`
	}
	if err := source.ParseInto(&file); err != nil {
		return nil, err
	}
	return file.Cases, nil
}

func doSubscriptionViewTests(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilitySubscriptionManagement)

	t.AfterEach(resetAfterTest)
	t.BeforeEach(func(t *ldtest.T) {
		d := driver(t)
		check(t, d.EnsureFeature(servicedef.FeatureSubscriptionManagement, true))
		check(t, d.EnsureFeature(servicedef.FeatureAccountDeletion, false))
		authenticateInApp(t)
	})

	t.Run("authentication needed", func(t *ldtest.T) {
		d := driver(t)
		serveSubscriptionDetailsStatus(t, http.StatusUnauthorized)

		check(t, d.WaitForQueryAndClick(navBar.Settings.Visible()))
		check(t, d.WaitForQuery(global.ScreenLoader.Ready()))

		check(t, d.WaitForQueryAndClick(screenSettings.UserProfile.Visible()))
		check(t, d.WaitForQuery(screenSettings.StackView.Ready()))

		serveSubscriptionDetails(t, mockvpn.YearlySubscriptionDetails())
		check(t, d.WaitForQueryAndClick(screenSettings.ReauthButton.Visible()))
		mockInBrowserAuthentication(t)

		check(t, d.WaitForQuery(subscriptionView.Screen.Visible()))
	}, ldtest.Requires(servicedef.CapabilityOutOfBandAuthRedirect))

	cases, err := loadSubscriptionViewCases()
	check(t, err)
	for _, c := range cases {
		c := c
		t.Run("subscription details: "+c.Name, func(t *ldtest.T) { doSubscriptionDetailsTest(t, c) })
	}

	t.Run("logout", func(t *ldtest.T) {
		openSubscriptionManagement(t)
		signOut(t)
		waitForInitialView(t)
	})

	// the client records sign-out telemetry only where it can complete logins out of band
	t.Run("sign-out from settings is recorded", func(t *ldtest.T) {
		openSubscriptionManagement(t)
		since := time.Now()
		signOut(t)
		requireRequestSince(t, requireContext(t).fxa, http.MethodPost, mockvpn.PathFxASessionDestroy, since)
	}, ldtest.Requires(servicedef.CapabilityOutOfBandAuthRedirect))

	t.Run("annual upgrade shown for monthly web subscription", func(t *ldtest.T) {
		serveSubscriptionDetails(t, mockvpn.MonthlySubscriptionDetails())
		check(t, driver(t).EnsureFeature(servicedef.FeatureAnnualUpgrade, true))
		openSubscriptionManagement(t)
		check(t, driver(t).WaitForQuery(subscriptionView.AnnualUpgrade.Visible()))
	})

	t.Run("annual upgrade hidden for yearly web subscription", func(t *ldtest.T) {
		serveSubscriptionDetails(t, mockvpn.YearlySubscriptionDetails())
		check(t, driver(t).EnsureFeature(servicedef.FeatureAnnualUpgrade, true))
		openSubscriptionManagement(t)
		check(t, driver(t).WaitForQuery(subscriptionView.AnnualUpgrade.Hidden()))
	})

	t.Run("annual upgrade hidden when feature is off", func(t *ldtest.T) {
		check(t, driver(t).EnsureFeature(servicedef.FeatureAnnualUpgrade, false))
		serveSubscriptionDetails(t, mockvpn.MonthlySubscriptionDetails())
		openSubscriptionManagement(t)
		check(t, driver(t).WaitForQuery(subscriptionView.AnnualUpgrade.Hidden()))
	})
}

func doSubscriptionDetailsTest(t *ldtest.T, c SubscriptionViewCase) {
	d := driver(t)
	serveSubscriptionDetails(t, c.Details())

	openSubscriptionManagement(t)

	check(t, d.WaitForQueryAndClick(subscriptionView.ManageAccount.Visible()))
	_, err := d.WaitForLastURL(fmt.Sprintf("containing %q and %q", accountURLPrefix, accountURLEmail),
		func(u string) bool {
			return strings.Contains(u, accountURLPrefix) && strings.Contains(u, accountURLEmail)
		})
	check(t, err)

	if c.ManageSubscriptionLink != "" {
		check(t, d.WaitForQuery(subscriptionView.ManageSubscription.Visible()))
		check(t, d.ScrollToQuery(subscriptionView.Flickable.Visible(), subscriptionView.ManageSubscription.Visible()))
		check(t, d.WaitForQueryAndClick(subscriptionView.ManageSubscription.Visible()))
		_, err := d.WaitForLastURL(fmt.Sprintf("containing %q", c.ManageSubscriptionLink),
			func(u string) bool { return strings.Contains(u, c.ManageSubscriptionLink) })
		check(t, err)
	}

	check(t, d.WaitForQueryAndClick(screenSettings.Back.Visible()))
	check(t, d.WaitForQuery(screenSettings.StackView.Ready()))
	check(t, d.WaitForQuery(screenSettings.UserProfile.Visible()))

	check(t, d.WaitForQueryAndClick(navBar.Home.Visible()))
	check(t, d.WaitForQuery(global.ScreenLoader.Ready()))
	check(t, d.WaitForQuery(screenHome.ControllerTitle.Visible()))
}

func openSubscriptionManagement(t *ldtest.T) {
	d := driver(t)
	check(t, d.WaitForQueryAndClick(navBar.Settings.Visible()))
	check(t, d.WaitForQuery(global.ScreenLoader.Ready()))
	check(t, d.WaitForQueryAndClick(screenSettings.UserProfile.Visible()))
	check(t, d.WaitForQuery(subscriptionView.Screen.Visible()))
	check(t, d.WaitForQuery(screenSettings.StackView.Ready()))
}

func signOut(t *ldtest.T) {
	d := driver(t)
	check(t, d.WaitForQuery(subscriptionView.SignOut.Visible()))
	check(t, d.ScrollToQuery(subscriptionView.Flickable.Visible(), subscriptionView.SignOut.Visible()))
	check(t, d.WaitForQueryAndClick(subscriptionView.SignOut.Visible()))
}

func serveSubscriptionDetails(t *ldtest.T, details ldvalue.Value) {
	mock(t).Bind(mockvpn.SlotGuardianSubscriptionDetails, mockvpn.ServeSubscriptionDetails(details))
}

func serveSubscriptionDetailsStatus(t *ldtest.T, status int) {
	mock(t).Bind(mockvpn.SlotGuardianSubscriptionDetails, func(c *mockvpn.Call) {
		c.Respond(status, ldvalue.ObjectBuild().Build())
	})
}
