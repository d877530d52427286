// Package ratelimit implements the sliding-window request limiter (C2):
// per-IP, per-user, per-org, per-ip-and-user, or a single global bucket,
// with a CIDR whitelist and a burst multiplier applied to the raw tier limit.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// Tier names the request class a limit applies to.
type Tier string

const (
	TierAuth   Tier = "auth"
	TierUpload Tier = "upload"
	TierAPI    Tier = "api"
)

// Limit is one bucket's configuration.
type Limit struct {
	Requests        int
	Window          time.Duration
	BurstMultiplier float64
}

func (l Limit) effectiveCap() int {
	if l.BurstMultiplier <= 0 {
		return l.Requests
	}
	return int(float64(l.Requests) * l.BurstMultiplier)
}

// Decision is the outcome of a Check call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	RetryAfter time.Duration
	Strategy  domain.RateLimitStrategy
}

// Request carries the bucket-key material a caller has available: source IP,
// authenticated user ID and org ID (empty if unauthenticated).
type Request struct {
	IP     string
	UserID string
	OrgID  string
	Tier   Tier
}

// Limiter is the capability interface the HTTP middleware depends on.
type Limiter interface {
	Check(ctx context.Context, req Request) (Decision, error)
}

// Config configures a SlidingWindowLimiter.
type Config struct {
	Strategy  domain.RateLimitStrategy
	Limits    map[Tier]Limit
	Whitelist []*net.IPNet
}

// SlidingWindowLimiter counts requests in a trailing window per bucket key
// using a Redis sorted set (the sliding-window-log algorithm: one member per
// request, scored by its arrival time, pruned on every check), falling back
// to an in-process counter store when Redis is unreachable.
type SlidingWindowLimiter struct {
	cfg      Config
	redis    *redis.Client
	fallback *inProcessStore
	prefix   string
}

func NewSlidingWindowLimiter(cfg Config, client *redis.Client) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		cfg:      cfg,
		redis:    client,
		fallback: newInProcessStore(),
		prefix:   "ventro:ratelimit",
	}
}

func (l *SlidingWindowLimiter) whitelisted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range l.cfg.Whitelist {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// bucketKeys returns the set of bucket keys that must all have capacity for
// the request to be admitted. per_ip_and_user yields two keys; every other
// strategy yields exactly one.
func (l *SlidingWindowLimiter) bucketKeys(req Request) []string {
	switch l.cfg.Strategy {
	case domain.StrategyPerIP:
		return []string{fmt.Sprintf("ip:%s:%s", req.Tier, req.IP)}
	case domain.StrategyPerUser:
		return []string{fmt.Sprintf("user:%s:%s", req.Tier, req.UserID)}
	case domain.StrategyPerOrg:
		return []string{fmt.Sprintf("org:%s:%s", req.Tier, req.OrgID)}
	case domain.StrategyPerIPAndUser:
		return []string{
			fmt.Sprintf("ip:%s:%s", req.Tier, req.IP),
			fmt.Sprintf("user:%s:%s", req.Tier, req.UserID),
		}
	case domain.StrategyGlobal:
		return []string{fmt.Sprintf("global:%s", req.Tier)}
	default:
		return []string{fmt.Sprintf("ip:%s:%s", req.Tier, req.IP)}
	}
}

// Check evaluates every bucket key for the request; strategy per_ip_and_user
// is admitted only if both buckets have capacity (spec.md §8 property 6).
func (l *SlidingWindowLimiter) Check(ctx context.Context, req Request) (Decision, error) {
	if req.IP != "" && l.whitelisted(req.IP) {
		return Decision{Allowed: true, Strategy: l.cfg.Strategy}, nil
	}
	limit, ok := l.cfg.Limits[req.Tier]
	if !ok {
		limit = Limit{Requests: 60, Window: time.Minute, BurstMultiplier: 1.5}
	}
	bucketCap := limit.effectiveCap()

	worst := Decision{Allowed: true, Limit: bucketCap, Remaining: bucketCap, Strategy: l.cfg.Strategy}
	for _, key := range l.bucketKeys(req) {
		count, retryAfter, err := l.countInWindow(ctx, key, limit.Window)
		if err != nil {
			slog.Warn("rate limit store unreachable, falling back to in-process counter", "error", err, "key", key)
			count, retryAfter = l.fallback.countInWindow(key, limit.Window)
		}
		remaining := bucketCap - count
		if remaining < 0 {
			remaining = 0
		}
		if count > bucketCap {
			worst.Allowed = false
			worst.Remaining = 0
			if retryAfter > worst.RetryAfter {
				worst.RetryAfter = retryAfter
			}
		} else if remaining < worst.Remaining {
			worst.Remaining = remaining
		}
	}
	return worst, nil
}

// countInWindow records the current request and returns the number of
// requests seen in the trailing window, pruning expired entries first.
func (l *SlidingWindowLimiter) countInWindow(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if l.redis == nil {
		return l.fallback.countInWindow(key, window)
	}
	fullKey := l.prefix + ":" + key
	now := time.Now()
	cutoff := now.Add(-window)

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	pipe.ZAdd(ctx, fullKey, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	card := pipe.ZCard(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return int(card.Val()), window, nil
}
