package vpntests

import (
	"github.com/mozilla/vpn-test-harness/uidriver"
)

// Object names exposed by the client UI, grouped by screen.

var screenInitialize = struct { //nolint:gochecknoglobals
	GetStarted uidriver.Selector
}{
	GetStarted: "//getStarted",
}

var screenAuthenticationInApp = struct { //nolint:gochecknoglobals
	StartTextInput      uidriver.Selector
	StartButton         uidriver.Selector
	SignInPasswordInput uidriver.Selector
	SignInButton        uidriver.Selector
}{
	StartTextInput:      "//authStart-textInput",
	StartButton:         "//authStart-button",
	SignInPasswordInput: "//authSignIn-passwordInput",
	SignInButton:        "//authSignIn-button",
}

var screenHome = struct { //nolint:gochecknoglobals
	ControllerTitle  uidriver.Selector
	ControllerToggle uidriver.Selector
}{
	ControllerTitle:  "//controllerTitle",
	ControllerToggle: "//controllerToggle",
}

var screenSubscriptionNeeded = struct { //nolint:gochecknoglobals
	View   uidriver.Selector
	Button uidriver.Selector
}{
	View:   "//subscriptionNeededView",
	Button: "//vpnSubscriptionNeededButton",
}

var navBar = struct { //nolint:gochecknoglobals
	Home     uidriver.Selector
	Settings uidriver.Selector
}{
	Home:     "//navigationLayout/navButton-home",
	Settings: "//navigationLayout/navButton-settings",
}

var global = struct { //nolint:gochecknoglobals
	ScreenLoader uidriver.Selector
}{
	ScreenLoader: "//screenLoader",
}

var screenSettings = struct { //nolint:gochecknoglobals
	UserProfile  uidriver.Selector
	StackView    uidriver.Selector
	Back         uidriver.Selector
	ReauthButton uidriver.Selector
}{
	UserProfile:  "//settingsUserProfile",
	StackView:    "//settings-stackView",
	Back:         "//settings-back",
	ReauthButton: "//authNeededButton",
}

var subscriptionView = struct { //nolint:gochecknoglobals
	Screen             uidriver.Selector
	Flickable          uidriver.Selector
	ManageAccount      uidriver.Selector
	ManageSubscription uidriver.Selector
	SignOut            uidriver.Selector
	AnnualUpgrade      uidriver.Selector
}{
	Screen:             "//subscriptionManagmentView",
	Flickable:          "//subscriptionManagmentView-flickable",
	ManageAccount:      "//subscriptionUserProfile-manageAccountButton",
	ManageSubscription: "//subscriptionItem-manageSubscriptionButton",
	SignOut:            "//accountLogout",
	AnnualUpgrade:      "//subscriptionItem-annualUpgrade",
}
