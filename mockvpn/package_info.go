// Package mockvpn emulates the upstream services that the VPN client talks to: Guardian (account,
// devices and subscriptions) and Firefox Accounts (login).
//
// Each service is served by a Gateway that answers requests from a RouteTable owned by a shared
// Context. Test steps reprogram the Context between actions; named callback slots let a test swap
// out the behavior of a route for one case and have it restored by Reset afterward.
package mockvpn
