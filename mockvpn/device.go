package mockvpn

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Device is the device record that Guardian knows about. The client registers it with
// POST /api/v1/vpn/device and later sees it listed in its account.
//
// A single Device lives in the Context, so the registration handler and the account handler
// agree on it without sharing anything else.
type Device struct {
	Name        string
	UniqueID    string
	Pubkey      string
	IPv4Address string
	IPv6Address string
	CreatedAt   time.Time
}

func newDevice() Device {
	return Device{
		Name:        "Current device",
		IPv4Address: "127.0.0.1",
		IPv6Address: "::1",
		CreatedAt:   time.Now().UTC(),
	}
}

// Value renders the device the way Guardian does.
func (d Device) Value() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("name", d.Name).
		SetString("unique_id", d.UniqueID).
		SetString("pubkey", d.Pubkey).
		SetString("ipv4_address", d.IPv4Address).
		SetString("ipv6_address", d.IPv6Address).
		SetString("created_at", d.CreatedAt.Format("2006-01-02T15:04:05.000Z")).
		Build()
}

// RecordRegistration copies the fields the client chose from a device registration request.
func (d *Device) RecordRegistration(r *Request) {
	d.Name = r.Field("name").String()
	d.Pubkey = r.Field("pubkey").String()
	d.UniqueID = r.Field("unique_id").String()
}
