// Package servicedef contains definitions for the protocol the harness uses to drive the VPN
// client through its inspector: command names, the response envelope, and the capability names
// a client build can advertise.
package servicedef
