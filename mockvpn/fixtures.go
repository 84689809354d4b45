package mockvpn

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// TestUserEmail is the account email used by every canned response.
const TestUserEmail = "test@mozilla.com"

// AccessToken is the Guardian token handed out by the login verification route.
const AccessToken = "our-token"

// UserData builds a Guardian account body. The "devices" list is filled in from the shared
// device record each time the account is served.
func UserData(displayName string, subscriptionActive bool) ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("avatar", "").
		SetString("display_name", displayName).
		SetString("email", TestUserEmail).
		SetInt("max_devices", 5).
		Set("subscriptions", ldvalue.ObjectBuild().
			Set("vpn", ldvalue.ObjectBuild().SetBool("active", subscriptionActive).Build()).
			Build()).
		Set("devices", emptyArray()).
		Build()
}

// ActiveUserData is an account with an active VPN subscription.
func ActiveUserData() ldvalue.Value { return UserData("Test", true) }

// InactiveUserData is the same account after its subscription lapsed.
func InactiveUserData() ldvalue.Value { return UserData("Test test", false) }

// SubscriptionDetails builds a Guardian subscriptionDetails body from its three parts.
func SubscriptionDetails(plan, payment, subscription ldvalue.Value) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("plan", plan).
		Set("payment", payment).
		Set("subscription", subscription).
		Build()
}

// Plan builds the "plan" part of the subscription details.
func Plan(amount int, currency, interval string, intervalCount int) ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetInt("amount", amount).
		SetString("currency", currency).
		SetString("interval", interval).
		SetInt("interval_count", intervalCount).
		Build()
}

func defaultPayment() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("payment_provider", "stripe").
		SetString("payment_type", "credit").
		SetString("last4", "1234").
		SetInt("exp_month", 12).
		SetInt("exp_year", 2022).
		SetString("brand", "visa").
		Build()
}

func defaultWebSubscription() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("_subscription_type", "web").
		SetInt("created", 1).
		SetInt("current_period_end", 2).
		SetBool("cancel_at_period_end", true).
		SetString("status", "active").
		SetString("product_id", "testId").
		Build()
}

// YearlySubscriptionDetails is a web subscription billed yearly in USD.
func YearlySubscriptionDetails() ldvalue.Value {
	return SubscriptionDetails(Plan(123, "usd", "year", 1), defaultPayment(), defaultWebSubscription())
}

// MonthlySubscriptionDetails is the same subscription billed monthly, which makes the client
// offer the annual upgrade.
func MonthlySubscriptionDetails() ldvalue.Value {
	return SubscriptionDetails(Plan(123, "usd", "month", 1), defaultPayment(), defaultWebSubscription())
}

func emptyArray() ldvalue.Value {
	return ldvalue.ArrayBuild().Build()
}

// withKey returns a copy of obj with key set to value. Non-object inputs are treated as empty.
func withKey(obj ldvalue.Value, key string, value ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	if obj.Type() == ldvalue.ObjectType {
		for k, v := range obj.AsValueMap().AsMap() {
			b.Set(k, v)
		}
	}
	return b.Set(key, value).Build()
}
