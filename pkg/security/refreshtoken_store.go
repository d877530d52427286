package security

import (
	"context"
	"time"
)

// RefreshTokenRecord is the persisted row behind one issued refresh token:
// spec.md §4.1 requires the raw token never be stored, only its digest,
// alongside the user agent/ip it was issued to and its expiry.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	OrgID     string
	TokenHash string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the record is still usable for a refresh: not
// revoked and not past its expiry.
func (r RefreshTokenRecord) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// RefreshTokenStore persists and rotates refresh-token digests, backing
// POST /auth/refresh's "look up by digest, require not-revoked and
// not-expired, rotate atomically" design (spec.md §4.1). repo.RefreshTokenRepo
// implements this over the RefreshToken ent schema.
type RefreshTokenStore interface {
	// Create persists a freshly issued refresh token, used by registration
	// and login (there is no prior token to rotate away).
	Create(ctx context.Context, rt RefreshTokenRecord) error
	// GetActiveByHash looks up a refresh token by its digest, returning an
	// error if no row matches or the row is revoked/expired.
	GetActiveByHash(ctx context.Context, hash string) (RefreshTokenRecord, error)
	// Rotate atomically revokes the token at oldID and inserts next in its
	// place, in one transaction, so a caller never observes a state with
	// both the old and new token active (or neither).
	Rotate(ctx context.Context, oldID string, next RefreshTokenRecord) error
	// RevokeAllForUser revokes every active refresh token owned by userID,
	// per spec.md §3's "logout-all revokes every token for that user".
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
}
