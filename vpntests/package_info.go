// Package vpntests contains the subscription-management functional tests.
//
// Tests in this package use other packages as follows:
//
// data: fixture files and their loader
//
// ldtest: the basic test scope framework
//
// mockvpn: the emulated Guardian and FxA services and the Test Context that programs them
//
// uidriver: queries and the driver that talks to the client's inspector
package vpntests
