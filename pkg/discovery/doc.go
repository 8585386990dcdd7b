// Package discovery locates the SIP server via mDNS and advertises the
// doorbell itself, for installations that do not pin a server address
// in the configuration.
package discovery
