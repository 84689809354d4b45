// Package uidrivertest provides a fake inspector for testing code that drives the VPN client,
// both as an in-process uidriver.Inspector and behind a WebSocket server.
package uidrivertest
