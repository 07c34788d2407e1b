// Package privacy masks client identifiers before they reach logs.
package privacy

import "net/netip"

// AnonymizeIP keeps the network part of an address: the /24 for IPv4
// (including IPv4-mapped IPv6) and the /48 for IPv6. Empty input yields
// "unknown" and unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
