package ratelimit

import (
	"fmt"
	"net"
	"time"
)

// ParseWhitelist converts CIDR strings (e.g. "10.0.0.0/8") from configuration
// into the *net.IPNet values Config.Whitelist expects.
func ParseWhitelist(cidrs []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", c, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// DefaultLimits returns the representative per-tier limits from spec.md §6's
// configuration surface, before CLI/YAML overrides are applied.
func DefaultLimits() map[Tier]Limit {
	return map[Tier]Limit{
		TierAuth:   {Requests: 10, Window: time.Minute, BurstMultiplier: 1.5},
		TierUpload: {Requests: 20, Window: time.Minute, BurstMultiplier: 1.5},
		TierAPI:    {Requests: 120, Window: time.Minute, BurstMultiplier: 1.5},
	}
}
