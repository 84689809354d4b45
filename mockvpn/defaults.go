package mockvpn

import (
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Guardian routes.
const (
	PathAccount             = "/api/v1/vpn/account"
	PathDevice              = "/api/v1/vpn/device"
	PathSubscriptionDetails = "/api/v1/vpn/subscriptionDetails"
	PathFeatureList         = "/api/v1/vpn/featurelist"
	PathServers             = "/api/v1/vpn/servers"
	PathVersions            = "/api/v1/vpn/versions"
	PathLoginVerify         = "/api/v2/vpn/login/verify"
)

// FxA routes.
const (
	PathFxAAttachedClients = "/v1/account/attached_clients"
	PathFxALogin           = "/v1/account/login"
	PathFxAVerifyTotp      = "/v1/session/verify/totp"
	PathFxADestroy         = "/v1/account/destroy"
	PathFxASessionDestroy  = "/v1/session/destroy"
)

// Names of the callback slots bound by default. Tests rebind them with Context.Bind.
const (
	SlotGuardianAccount             = "guardianAccount"
	SlotGuardianDevice              = "guardianDevice"
	SlotGuardianSubscriptionDetails = "guardianSubscriptionDetails"
	SlotGuardianLoginVerify         = "guardianLoginVerify"
	SlotFxALogin                    = "fxaLogin"
	SlotFxATotp                     = "fxaTotp"
	SlotFxADestroy                  = "fxaDestroy"
)

var authorization = []string{"Authorization"} //nolint:gochecknoglobals

// DefaultRoutes returns the baseline route table of a service. Spec callbacks refer to slots,
// so the behavior behind them follows whatever is bound in the Context.
func DefaultRoutes(ctx *Context, service Service) Routes {
	switch service {
	case Guardian:
		return Routes{
			GETs: map[string]EndpointSpec{
				PathAccount: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					Body:            ActiveUserData(),
					Callback:        ctx.Slot(SlotGuardianAccount),
				},
				PathSubscriptionDetails: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					Body:            ldvalue.Null(),
					Callback:        ctx.Slot(SlotGuardianSubscriptionDetails),
				},
				PathFeatureList: {
					Status: http.StatusOK,
					Body:   ldvalue.ObjectBuild().Set("features", ldvalue.ObjectBuild().Build()).Build(),
				},
				PathServers: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					Body:            ldvalue.ObjectBuild().Set("countries", emptyArray()).Build(),
				},
				PathVersions: {
					Status: http.StatusOK,
					Body:   ldvalue.ObjectBuild().Build(),
				},
			},
			POSTs: map[string]EndpointSpec{
				PathDevice: {
					Status:          http.StatusCreated,
					RequiredHeaders: authorization,
					BodyValidator:   GuardianDeviceValidator,
					Body:            ldvalue.ObjectBuild().Build(),
					Callback:        ctx.Slot(SlotGuardianDevice),
				},
				PathLoginVerify: {
					Status:        http.StatusOK,
					BodyValidator: GuardianLoginVerifyValidator,
					Body:          ldvalue.Null(),
					Callback:      ctx.Slot(SlotGuardianLoginVerify),
				},
			},
		}
	case FxA:
		return Routes{
			GETs: map[string]EndpointSpec{
				PathFxAAttachedClients: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					Body:            emptyArray(),
				},
			},
			POSTs: map[string]EndpointSpec{
				PathFxALogin: {
					Status:        http.StatusOK,
					BodyValidator: FxALoginValidator,
					Body:          ldvalue.Null(),
					Callback:      ctx.Slot(SlotFxALogin),
				},
				PathFxAVerifyTotp: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					BodyValidator:   FxAVerifyTotpValidator,
					Body:            ldvalue.Null(),
					Callback:        ctx.Slot(SlotFxATotp),
				},
				PathFxADestroy: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					Body:            ldvalue.Null(),
					Callback:        ctx.Slot(SlotFxADestroy),
				},
				PathFxASessionDestroy: {
					Status:          http.StatusOK,
					RequiredHeaders: authorization,
					Body:            ldvalue.ObjectBuild().Build(),
				},
			},
		}
	default:
		return Routes{}
	}
}

// DefaultCallbacks returns the baseline binding of every slot.
func DefaultCallbacks() map[string]Callback {
	return map[string]Callback{
		SlotGuardianAccount:             ServeAccountWithDevice,
		SlotGuardianDevice:              RecordDevice,
		SlotGuardianSubscriptionDetails: ServeSubscriptionDetails(YearlySubscriptionDetails()),
		SlotGuardianLoginVerify:         ServeLoginVerify,
		SlotFxALogin:                    ServeFxALogin,
		SlotFxATotp: func(c *Call) {
			c.Spec.Body = ldvalue.ObjectBuild().SetBool("success", true).Build()
		},
		SlotFxADestroy: func(c *Call) {
			c.Respond(http.StatusOK, ldvalue.ObjectBuild().Build())
		},
	}
}

// ServeAccountWithDevice lists the shared device in the account body.
func ServeAccountWithDevice(c *Call) {
	c.Spec.Body = withKey(c.Spec.Body, "devices", ldvalue.ArrayOf(c.Device().Value()))
}

// RecordDevice stores the registered device in the shared record.
func RecordDevice(c *Call) {
	c.Device().RecordRegistration(c.Request)
}

// ServeSubscriptionDetails returns a callback that answers 200 with the given details.
func ServeSubscriptionDetails(details ldvalue.Value) Callback {
	return func(c *Call) {
		c.Respond(http.StatusOK, details)
	}
}

// ServeLoginVerify completes the in-browser login: it answers with the account currently
// configured on the Guardian account route and a token.
func ServeLoginVerify(c *Call) {
	user := ActiveUserData()
	if spec, ok := c.Routes(Guardian).Lookup(http.MethodGet, PathAccount); ok && !spec.Body.IsNull() {
		user = spec.Body
	}
	user = withKey(user, "devices", ldvalue.ArrayOf(c.Device().Value()))
	c.Spec.Body = ldvalue.ObjectBuild().Set("user", user).SetString("token", AccessToken).Build()
}

// ServeFxALogin answers a login as verified with no second factor.
func ServeFxALogin(c *Call) {
	c.Respond(http.StatusOK, ldvalue.ObjectBuild().
		SetString("sessionToken", "session").
		SetBool("verified", true).
		SetString("verificationMethod", "").
		Build())
}
