package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
)

func newTestLimiter(strategy domain.RateLimitStrategy) *SlidingWindowLimiter {
	cfg := Config{
		Strategy: strategy,
		Limits: map[Tier]Limit{
			TierAPI: {Requests: 2, Window: time.Minute, BurstMultiplier: 1},
		},
	}
	return NewSlidingWindowLimiter(cfg, nil)
}

func TestPerIPLimiterAllowsThenBlocks(t *testing.T) {
	l := newTestLimiter(domain.StrategyPerIP)
	ctx := context.Background()
	req := Request{IP: "1.2.3.4", Tier: TierAPI}

	d1, err := l.Check(ctx, req)
	require.NoError(t, err)
	assert.True(t, d1.Allowed)

	d2, err := l.Check(ctx, req)
	require.NoError(t, err)
	assert.True(t, d2.Allowed)

	d3, err := l.Check(ctx, req)
	require.NoError(t, err)
	assert.False(t, d3.Allowed, "third request within window should exceed limit of 2")
	assert.Greater(t, d3.RetryAfter, time.Duration(0))
}

func TestPerIPAndUserRequiresBothBucketsHaveCapacity(t *testing.T) {
	// spec.md §8 property 6: strategy per_ip_and_user admits only if BOTH
	// buckets have capacity.
	l := newTestLimiter(domain.StrategyPerIPAndUser)
	ctx := context.Background()

	shared := Request{IP: "5.5.5.5", UserID: "user-1", Tier: TierAPI}
	_, err := l.Check(ctx, shared)
	require.NoError(t, err)
	_, err = l.Check(ctx, shared)
	require.NoError(t, err)

	// Same IP exhausted its bucket; a different user sharing that IP should
	// still be blocked because the IP bucket is shared across users.
	other := Request{IP: "5.5.5.5", UserID: "user-2", Tier: TierAPI}
	d, err := l.Check(ctx, other)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestWhitelistBypassesLimiting(t *testing.T) {
	whitelist, err := ParseWhitelist([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	cfg := Config{
		Strategy:  domain.StrategyPerIP,
		Limits:    map[Tier]Limit{TierAPI: {Requests: 1, Window: time.Minute, BurstMultiplier: 1}},
		Whitelist: whitelist,
	}
	l := NewSlidingWindowLimiter(cfg, nil)
	ctx := context.Background()
	req := Request{IP: "10.1.2.3", Tier: TierAPI}

	for i := 0; i < 5; i++ {
		d, err := l.Check(ctx, req)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestGlobalStrategySharesOneBucketAcrossCallers(t *testing.T) {
	l := newTestLimiter(domain.StrategyGlobal)
	ctx := context.Background()

	_, err := l.Check(ctx, Request{IP: "1.1.1.1", Tier: TierAPI})
	require.NoError(t, err)
	_, err = l.Check(ctx, Request{IP: "2.2.2.2", Tier: TierAPI})
	require.NoError(t, err)

	d, err := l.Check(ctx, Request{IP: "3.3.3.3", Tier: TierAPI})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
