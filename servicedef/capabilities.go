package servicedef

const (
	// CapabilityOutOfBandAuthRedirect means the client completes authentication by receiving a
	// redirect on a local listener (http://127.0.0.1:<port>/?code=...) after the in-browser login.
	// Builds that cannot open such a listener, such as the WebAssembly build, do not have it.
	CapabilityOutOfBandAuthRedirect = "out-of-band-auth-redirect"

	// CapabilitySubscriptionManagement means the client has the subscription management screens.
	CapabilitySubscriptionManagement = "subscription-management"
)

// AllCapabilities lists every capability a test may require.
func AllCapabilities() []string {
	return []string{CapabilityOutOfBandAuthRedirect, CapabilitySubscriptionManagement}
}
