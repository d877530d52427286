package config

import (
	"fmt"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/ratelimit"
)

// RateLimitConfig is C2's YAML-bound configuration: strategy, per-tier
// limits, and a CIDR whitelist bypassing rate limiting entirely — the
// representative surface spec.md §6 names.
type RateLimitConfig struct {
	Strategy  domain.RateLimitStrategy `yaml:"strategy" validate:"required"`
	Limits    map[string]LimitConfig   `yaml:"limits"`
	Whitelist []string                 `yaml:"whitelist,omitempty"`
}

// ToLimiterConfig converts the YAML shape into ratelimit.Config, parsing
// whitelist CIDRs and per-tier window durations.
func (c RateLimitConfig) ToLimiterConfig() (ratelimit.Config, error) {
	nets, err := ratelimit.ParseWhitelist(c.Whitelist)
	if err != nil {
		return ratelimit.Config{}, fmt.Errorf("parsing rate limit whitelist: %w", err)
	}

	limits := make(map[ratelimit.Tier]ratelimit.Limit, len(c.Limits))
	for tier, l := range c.Limits {
		limits[ratelimit.Tier(tier)] = ratelimit.Limit{
			Requests:        l.Requests,
			Window:          time.Duration(l.WindowSeconds) * time.Second,
			BurstMultiplier: l.BurstMultiplier,
		}
	}

	return ratelimit.Config{
		Strategy:  c.Strategy,
		Limits:    limits,
		Whitelist: nets,
	}, nil
}
