// Package discovery locates AmbiSense devices on the local network via
// mDNS/DNS-SD. Devices advertise a generic _http._tcp service; they are
// recognized by their "ambisense-" hostname prefix. The bridge core only
// needs the resolved host string - discovery is a convenience for the
// scan command and for serve --discover.
package discovery
