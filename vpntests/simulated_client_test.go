package vpntests

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/mockvpn"
	"github.com/mozilla/vpn-test-harness/servicedef"
	"github.com/mozilla/vpn-test-harness/uidriver"
	"github.com/mozilla/vpn-test-harness/uidriver/uidrivertest"
)

// simulatedClient stands in for the VPN client in tests of the suite itself. It drives a fake
// inspector's UI model from click handlers and talks to the mock gateways over HTTP the way the
// real client would.
type simulatedClient struct {
	ui           *uidrivertest.FakeInspector
	guardianURL  string
	fxaURL       string
	http         *http.Client
	authListener *httptest.Server

	// bogusRequestPath, if set, is requested from Guardian after every sign-in.
	bogusRequestPath string

	token            string
	email            string
	on               bool
	reauthPending    bool
	subscriptionType string
	errors           []error
	lock             sync.Mutex
}

var allElements = []uidriver.Selector{ //nolint:gochecknoglobals
	screenInitialize.GetStarted,
	screenAuthenticationInApp.StartTextInput,
	screenAuthenticationInApp.StartButton,
	screenAuthenticationInApp.SignInPasswordInput,
	screenAuthenticationInApp.SignInButton,
	screenHome.ControllerTitle,
	screenHome.ControllerToggle,
	screenSubscriptionNeeded.View,
	screenSubscriptionNeeded.Button,
	navBar.Home,
	navBar.Settings,
	global.ScreenLoader,
	screenSettings.UserProfile,
	screenSettings.StackView,
	screenSettings.Back,
	screenSettings.ReauthButton,
	subscriptionView.Screen,
	subscriptionView.Flickable,
	subscriptionView.ManageAccount,
	subscriptionView.ManageSubscription,
	subscriptionView.SignOut,
	subscriptionView.AnnualUpgrade,
}

func newSimulatedClient(guardianURL, fxaURL string) *simulatedClient {
	c := &simulatedClient{
		ui:          uidrivertest.NewFakeInspector(),
		guardianURL: guardianURL,
		fxaURL:      fxaURL,
		http:        &http.Client{},
	}
	c.authListener = httptest.NewServer(http.HandlerFunc(c.serveAuthListener))

	c.ui.OnClick(screenInitialize.GetStarted, func() {
		c.show(screenAuthenticationInApp.StartTextInput, screenAuthenticationInApp.StartButton)
	})
	c.ui.OnClick(screenAuthenticationInApp.StartButton, func() {
		email, _ := c.ui.Prop(screenAuthenticationInApp.StartTextInput, "text")
		c.lock.Lock()
		c.email = email
		c.lock.Unlock()
		c.show(screenAuthenticationInApp.SignInPasswordInput, screenAuthenticationInApp.SignInButton)
	})
	c.ui.OnClick(screenAuthenticationInApp.SignInButton, c.signInInApp)
	c.ui.OnClick(screenHome.ControllerToggle, c.toggle)
	c.ui.OnClick(screenSubscriptionNeeded.Button, c.openBrowserLogin)
	c.ui.OnClick(navBar.Home, c.showHome)
	c.ui.OnClick(navBar.Settings, c.showSettings)
	c.ui.OnClick(screenSettings.Back, c.showSettings)
	c.ui.OnClick(screenSettings.UserProfile, c.openSubscriptionView)
	c.ui.OnClick(screenSettings.ReauthButton, func() {
		c.lock.Lock()
		c.reauthPending = true
		c.lock.Unlock()
		c.openBrowserLogin()
	})
	c.ui.OnClick(subscriptionView.ManageAccount, func() {
		c.lock.Lock()
		email := c.email
		c.lock.Unlock()
		c.ui.SetLastURL("https://accounts.stage.mozaws.net/settings?email=" + email)
	})
	c.ui.OnClick(subscriptionView.ManageSubscription, c.openManageSubscription)
	c.ui.OnClick(subscriptionView.SignOut, c.signOut)
	c.ui.OnActivate(c.activate)
	c.ui.OnDeactivate(func() {
		c.setOn(false)
	})
	c.ui.OnReset(c.reset)

	c.reset()
	return c
}

func (c *simulatedClient) close() {
	c.authListener.Close()
}

func (c *simulatedClient) clientErrors() []error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]error(nil), c.errors...)
}

func (c *simulatedClient) fail(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.errors = append(c.errors, err)
}

// show makes exactly the given elements visible.
func (c *simulatedClient) show(visible ...uidriver.Selector) {
	for _, s := range allElements {
		c.ui.Hide(s)
	}
	for _, s := range visible {
		c.ui.Show(s)
	}
}

func (c *simulatedClient) reset() {
	c.lock.Lock()
	c.token = ""
	c.email = ""
	c.on = false
	c.reauthPending = false
	c.subscriptionType = ""
	c.lock.Unlock()
	c.ui.SetActive(false)
	c.show(screenInitialize.GetStarted)
}

func (c *simulatedClient) request(base, method, path string, body ldvalue.Value) (int, ldvalue.Value, error) {
	var reader io.Reader
	if !body.IsNull() {
		reader = bytes.NewBufferString(body.JSONString())
	}
	req, err := http.NewRequest(method, base+path, reader)
	if err != nil {
		return 0, ldvalue.Null(), err
	}
	c.lock.Lock()
	token := c.token
	c.lock.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, ldvalue.Null(), err
	}
	defer resp.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, ldvalue.Null(), err
	}
	if resp.Header.Get(mockvpn.ErrorHeader) != "" {
		return resp.StatusCode, ldvalue.Null(), fmt.Errorf("gateway rejected %s %s: %s", method, path, string(data))
	}
	return resp.StatusCode, ldvalue.Parse(data), nil
}

func (c *simulatedClient) signInInApp() {
	c.lock.Lock()
	email := c.email
	c.lock.Unlock()
	password, _ := c.ui.Prop(screenAuthenticationInApp.SignInPasswordInput, "text")

	status, session, err := c.request(c.fxaURL, http.MethodPost, mockvpn.PathFxALogin, ldvalue.ObjectBuild().
		SetString("email", email).
		SetString("authPW", fmt.Sprintf("%x", password)).
		SetString("reason", "signin").
		SetString("service", "guardian-vpn").
		Build())
	if err != nil || status != http.StatusOK || !session.GetByKey("verified").BoolValue() {
		c.fail(fmt.Errorf("FxA login failed: %d %v", status, err))
		return
	}
	c.completeLogin()
}

// completeLogin exchanges the authorization code for a Guardian token, registers the device and
// shows whichever screen the account state calls for.
func (c *simulatedClient) completeLogin() {
	status, verified, err := c.request(c.guardianURL, http.MethodPost, mockvpn.PathLoginVerify,
		ldvalue.ObjectBuild().SetString("code", "the_code").SetString("code_verifier", "verifier").Build())
	if err != nil || status != http.StatusOK {
		c.fail(fmt.Errorf("login verification failed: %d %v", status, err))
		return
	}
	c.lock.Lock()
	c.token = verified.GetByKey("token").StringValue()
	c.email = verified.GetByKey("user").GetByKey("email").StringValue()
	reauth := c.reauthPending
	c.reauthPending = false
	bogus := c.bogusRequestPath
	c.lock.Unlock()

	if bogus != "" {
		_, _, _ = c.request(c.guardianURL, http.MethodGet, bogus, ldvalue.Null())
	}
	if reauth {
		c.openSubscriptionView()
		return
	}

	status, _, err = c.request(c.guardianURL, http.MethodPost, mockvpn.PathDevice, ldvalue.ObjectBuild().
		SetString("name", "simulated device").
		SetString("pubkey", "c2ltdWxhdGVkIGtleQ==").
		SetString("unique_id", "simulated-0001").
		Build())
	if err != nil || status != http.StatusCreated {
		c.fail(fmt.Errorf("device registration failed: %d %v", status, err))
		return
	}

	if active, err := c.subscriptionActive(); err == nil && !active {
		c.show(screenSubscriptionNeeded.View, screenSubscriptionNeeded.Button)
		return
	}
	c.showHome()
}

// subscriptionActive asks Guardian whether the VPN subscription is active. Any failure is
// returned as an error, in which case the client keeps its previous idea of the subscription.
func (c *simulatedClient) subscriptionActive() (bool, error) {
	status, account, err := c.request(c.guardianURL, http.MethodGet, mockvpn.PathAccount, ldvalue.Null())
	if err != nil {
		c.fail(err)
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("account request returned %d", status)
	}
	return account.GetByKey("subscriptions").GetByKey("vpn").GetByKey("active").BoolValue(), nil
}

func (c *simulatedClient) showHome() {
	c.show(screenHome.ControllerTitle, screenHome.ControllerToggle, navBar.Home, navBar.Settings,
		global.ScreenLoader)
	c.lock.Lock()
	on := c.on
	c.lock.Unlock()
	c.setOn(on)
}

func (c *simulatedClient) setOn(on bool) {
	c.lock.Lock()
	c.on = on
	c.lock.Unlock()
	c.ui.SetActive(on)
	if on {
		c.ui.SetProp(screenHome.ControllerTitle, "text", "VPN is on")
	} else {
		c.ui.SetProp(screenHome.ControllerTitle, "text", "VPN is off")
	}
}

func (c *simulatedClient) toggle() {
	c.lock.Lock()
	on := c.on
	c.lock.Unlock()
	if !on {
		c.activate()
		return
	}
	if c.ui.ConnectionStability() == servicedef.ConnectionNoSignal {
		if active, err := c.subscriptionActive(); err == nil && !active {
			c.setOn(false)
			c.show(screenSubscriptionNeeded.View, screenSubscriptionNeeded.Button)
			return
		}
	}
	c.setOn(false)
}

func (c *simulatedClient) activate() {
	if active, err := c.subscriptionActive(); err == nil && !active {
		c.show(screenSubscriptionNeeded.View, screenSubscriptionNeeded.Button)
		return
	}
	c.setOn(true)
}

func (c *simulatedClient) openBrowserLogin() {
	u, _ := url.Parse(c.authListener.URL)
	c.ui.SetLastURL(c.guardianURL + loginURLPath + "/linux?code_challenge=abc&code_challenge_method=S256&port=" +
		u.Port())
}

func (c *simulatedClient) serveAuthListener(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("code") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	c.completeLogin()
	w.WriteHeader(http.StatusOK)
}

func (c *simulatedClient) showSettings() {
	c.show(screenSettings.UserProfile, screenSettings.StackView, navBar.Home, navBar.Settings,
		global.ScreenLoader)
}

func (c *simulatedClient) openSubscriptionView() {
	status, details, err := c.request(c.guardianURL, http.MethodGet, mockvpn.PathSubscriptionDetails, ldvalue.Null())
	if err != nil {
		c.fail(err)
		return
	}
	if status == http.StatusUnauthorized {
		c.showSettings()
		c.ui.Show(screenSettings.ReauthButton)
		return
	}
	if status != http.StatusOK {
		c.fail(fmt.Errorf("subscription details returned %d", status))
		return
	}
	subscriptionType := details.GetByKey("subscription").GetByKey("_subscription_type").StringValue()
	c.lock.Lock()
	c.subscriptionType = subscriptionType
	c.lock.Unlock()

	visible := []uidriver.Selector{
		subscriptionView.Screen, subscriptionView.Flickable, subscriptionView.ManageAccount,
		subscriptionView.SignOut, screenSettings.StackView, screenSettings.Back,
		navBar.Home, navBar.Settings, global.ScreenLoader,
	}
	if manageSubscriptionLinks[subscriptionType] != "" {
		visible = append(visible, subscriptionView.ManageSubscription)
	}
	if c.ui.Feature(servicedef.FeatureAnnualUpgrade) && subscriptionType == "web" &&
		details.GetByKey("plan").GetByKey("interval").StringValue() == "month" {
		visible = append(visible, subscriptionView.AnnualUpgrade)
	}
	c.show(visible...)
	c.ui.SetProp(subscriptionView.Flickable, "contentY", "0")
	c.ui.SetProp(subscriptionView.Flickable, "height", "600")
	c.ui.SetProp(subscriptionView.Flickable, "contentHeight", "1400")
	c.ui.SetProp(subscriptionView.ManageSubscription, "y", "700")
	c.ui.SetProp(subscriptionView.SignOut, "y", "1200")
}

var manageSubscriptionLinks = map[string]string{ //nolint:gochecknoglobals
	"web":        "https://accounts.stage.mozaws.net/subscriptions",
	"iap_apple":  "https://apps.apple.com/account/subscriptions",
	"iap_google": "https://play.google.com/store/account/subscriptions",
}

func (c *simulatedClient) openManageSubscription() {
	c.lock.Lock()
	link := manageSubscriptionLinks[c.subscriptionType]
	c.lock.Unlock()
	c.ui.SetLastURL(link)
}

func (c *simulatedClient) signOut() {
	status, _, err := c.request(c.fxaURL, http.MethodPost, mockvpn.PathFxASessionDestroy, ldvalue.Null())
	if err != nil || status != http.StatusOK {
		c.fail(fmt.Errorf("session destroy failed: %d %v", status, err))
	}
	c.reset()
}
