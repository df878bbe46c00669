package models

import (
	"net/netip"
	"strings"

	dErrors "civic/pkg/domain-errors"
)

// Allowlist holds client addresses exempt from rate limiting, such as the
// city's own back-office network.
type Allowlist struct {
	prefixes []netip.Prefix
}

// NewAllowlist accepts single addresses ("192.0.2.10") and CIDR ranges
// ("10.0.0.0/8"). A nil or empty list exempts nobody.
func NewAllowlist(entries []string) (*Allowlist, error) {
	a := &Allowlist{}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid allowlist range "+entry)
			}
			a.prefixes = append(a.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid allowlist address "+entry)
		}
		addr = addr.Unmap()
		a.prefixes = append(a.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return a, nil
}

func (a *Allowlist) Contains(ip string) bool {
	if a == nil || len(a.prefixes) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.prefixes)
}
