package config

import (
	"testing"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitConfigToLimiterConfigConvertsTiers(t *testing.T) {
	cfg := RateLimitConfig{
		Strategy: domain.StrategyPerIPAndUser,
		Limits: map[string]LimitConfig{
			"api": {Requests: 120, WindowSeconds: 60, BurstMultiplier: 1.5},
		},
		Whitelist: []string{"10.0.0.0/8"},
	}

	lc, err := cfg.ToLimiterConfig()
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyPerIPAndUser, lc.Strategy)
	assert.Equal(t, 1, len(lc.Whitelist))
	limit := lc.Limits["api"]
	assert.Equal(t, 120, limit.Requests)
	assert.Equal(t, 60*time.Second, limit.Window)
	assert.Equal(t, 1.5, limit.BurstMultiplier)
}

func TestRateLimitConfigToLimiterConfigRejectsBadCIDR(t *testing.T) {
	cfg := RateLimitConfig{
		Strategy:  domain.StrategyPerIP,
		Whitelist: []string{"not-a-cidr"},
	}

	_, err := cfg.ToLimiterConfig()
	assert.Error(t, err)
}

func TestMergeRateLimitTiersUserOverridesBuiltin(t *testing.T) {
	builtin := map[string]LimitConfig{
		"auth": {Requests: 10, WindowSeconds: 60},
		"api":  {Requests: 120, WindowSeconds: 60},
	}
	user := map[string]LimitConfig{
		"api": {Requests: 999, WindowSeconds: 60},
	}

	merged := mergeRateLimitTiers(builtin, user)

	assert.Equal(t, 999, merged["api"].Requests)
	assert.Equal(t, 10, merged["auth"].Requests)
}
