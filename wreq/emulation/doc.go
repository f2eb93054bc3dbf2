// Package emulation resolves browser emulation profiles for the wreq client.
//
// A profile bundles everything the transport engine needs to present a
// convincing browser fingerprint: the TLS client-hello shape, HTTP/2 settings
// and header ordering (carried by a tls-client ClientProfile) plus the default
// User-Agent string the browser would send.
//
// Profiles are identified by normalized names like "chrome_146" or
// "firefox_147". Dots, dashes and spaces in a name are treated as
// underscores, so "safari_16.0" and "safari_16_0" resolve identically.
package emulation
