// Package privacy reduces personal data before it reaches logs and audit.
package privacy

import "net"

// AnonymizeIP drops the host part (last IPv4 octet, last 80 IPv6 bits).
// Values that do not parse as an address are returned unchanged.
func AnonymizeIP(raw string) string {
	ip := net.ParseIP(raw)
	if ip == nil {
		return raw
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}
