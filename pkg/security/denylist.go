package security

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// safetyMargin is added to a jti's remaining lifetime when it is denylisted,
// per spec.md §4.1, so a borderline-clock-skew request is still rejected.
const safetyMargin = 2 * time.Minute

// TokenDenylist is the ITokenDenylist capability interface from spec.md §9:
// narrow, no reflection, exactly the operations a caller needs.
type TokenDenylist interface {
	// Revoke marks jti as revoked until expiresAt (+ safety margin).
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked reports whether jti is currently denylisted. On backing-store
	// failure it fails OPEN (returns false, permit) and logs a warning, per
	// spec.md §4.1's failure model.
	IsRevoked(ctx context.Context, jti string) bool
	// RevokeAllForUser records a "revoked-before" timestamp for userID; any
	// access token whose iat predates it is rejected (logout-all).
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	// RevokedBefore returns the revoked-before timestamp for userID, or the
	// zero time if none was ever set. Fails open (zero time) on store error.
	RevokedBefore(ctx context.Context, userID string) time.Time
}

// RedisDenylist implements TokenDenylist on a sorted set keyed by jti with
// score = absolute expiry epoch seconds, per spec.md §4.1.
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, prefix: "ventro:denylist"}
}

func (d *RedisDenylist) jtiKey() string       { return d.prefix + ":jti" }
func (d *RedisDenylist) revokedBeforeKey(userID string) string {
	return d.prefix + ":revoked_before:" + userID
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	score := float64(expiresAt.Add(safetyMargin).Unix())
	if err := d.client.ZAdd(ctx, d.jtiKey(), redis.Z{Score: score, Member: jti}).Err(); err != nil {
		return err
	}
	// Opportunistic pruning of entries past their expiry.
	d.client.ZRemRangeByScore(ctx, d.jtiKey(), "-inf", strconv.FormatInt(time.Now().Unix(), 10))
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) bool {
	score, err := d.client.ZScore(ctx, d.jtiKey(), jti).Result()
	if err != nil {
		if err == redis.Nil {
			return false
		}
		slog.Warn("denylist store unreachable, failing open", "error", err)
		return false
	}
	return int64(score) >= time.Now().Unix()
}

func (d *RedisDenylist) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	return d.client.Set(ctx, d.revokedBeforeKey(userID), at.Unix(), MaxRefreshTokenTTL).Err()
}

func (d *RedisDenylist) RevokedBefore(ctx context.Context, userID string) time.Time {
	val, err := d.client.Get(ctx, d.revokedBeforeKey(userID)).Int64()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("denylist store unreachable for revoked-before check, failing open", "error", err)
		}
		return time.Time{}
	}
	return time.Unix(val, 0)
}

// InProcessDenylist is a single-node fallback used in tests and when no
// Redis is configured. It is NOT suitable for multi-node deployments.
type InProcessDenylist struct {
	mu            sync.RWMutex
	revoked       map[string]time.Time
	revokedBefore map[string]time.Time
}

func NewInProcessDenylist() *InProcessDenylist {
	return &InProcessDenylist{
		revoked:       make(map[string]time.Time),
		revokedBefore: make(map[string]time.Time),
	}
}

func (d *InProcessDenylist) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = expiresAt.Add(safetyMargin)
	for k, v := range d.revoked {
		if v.Before(time.Now()) {
			delete(d.revoked, k)
		}
	}
	return nil
}

func (d *InProcessDenylist) IsRevoked(_ context.Context, jti string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	exp, ok := d.revoked[jti]
	return ok && exp.After(time.Now())
}

func (d *InProcessDenylist) RevokeAllForUser(_ context.Context, userID string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revokedBefore[userID] = at
	return nil
}

func (d *InProcessDenylist) RevokedBefore(_ context.Context, userID string) time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revokedBefore[userID]
}
