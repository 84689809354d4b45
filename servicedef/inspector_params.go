package servicedef

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Commands understood by the client's inspector. Arguments follow the command name, separated by
// spaces.
const (
	CommandQuery                    = "query"        // <query>
	CommandClick                    = "click"        // <query>
	CommandProperty                 = "property"     // <query> <name>
	CommandSetProperty              = "set_property" // <query> <name> <value>
	CommandLastURL                  = "last_url"
	CommandForceConnectionStability = "force_connection_stability" // <status>
	CommandIsFeatureFlippedOn       = "is_feature_flipped_on"      // <feature>
	CommandFlipOnFeature            = "flip_on_feature"            // <feature>
	CommandFlipOffFeature           = "flip_off_feature"           // <feature>
	CommandActivate                 = "activate"
	CommandDeactivate               = "deactivate"
	CommandReset                    = "reset"
)

// Connection stability states accepted by CommandForceConnectionStability.
const (
	ConnectionStable   = "stable"
	ConnectionUnstable = "unstable"
	ConnectionNoSignal = "nosignal"
)

// Features toggled by the subscription tests.
const (
	FeatureSubscriptionManagement = "subscriptionManagement"
	FeatureAccountDeletion        = "accountDeletion"
	FeatureAnnualUpgrade          = "annualUpgrade"
)

// InspectorResponse is the JSON envelope of every inspector reply. Type echoes the command name.
// Error is non-empty if the command failed.
type InspectorResponse struct {
	Type  string        `json:"type"`
	Value ldvalue.Value `json:"value"`
	Error string        `json:"error,omitempty"`
}
