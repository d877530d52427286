package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/refreshtoken"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/security"
)

// RefreshTokenRepo implements security.RefreshTokenStore over the
// RefreshToken entity.
type RefreshTokenRepo struct {
	client *database.Client
}

var _ security.RefreshTokenStore = (*RefreshTokenRepo)(nil)

// Create persists a freshly issued refresh token at login/registration.
func (r *RefreshTokenRepo) Create(ctx context.Context, rt security.RefreshTokenRecord) error {
	_, err := r.client.RefreshToken.Create().
		SetID(rt.ID).
		SetUserID(rt.UserID).
		SetOrgID(rt.OrgID).
		SetTokenHash(rt.TokenHash).
		SetUserAgent(rt.UserAgent).
		SetIP(rt.IP).
		SetExpiresAt(rt.ExpiresAt).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("persisting refresh token for user %s: %w", rt.UserID, err)
	}
	return nil
}

// GetActiveByHash looks up a refresh token by its digest, rejecting a row
// that has already been revoked or has expired.
func (r *RefreshTokenRepo) GetActiveByHash(ctx context.Context, hash string) (security.RefreshTokenRecord, error) {
	row, err := r.client.RefreshToken.Query().
		Where(refreshtoken.TokenHashEQ(hash)).
		Only(ctx)
	if err != nil {
		return security.RefreshTokenRecord{}, fmt.Errorf("loading refresh token: %w", err)
	}
	record := refreshTokenFromEnt(row)
	if !record.Active(time.Now()) {
		return security.RefreshTokenRecord{}, fmt.Errorf("refresh token %s is revoked or expired", row.ID)
	}
	return record, nil
}

// Rotate revokes the token at oldID and inserts next in its place in one
// transaction, so a refresh either fully succeeds (old dead, new live) or
// fully fails (old still live, next never persisted) — never both tokens
// active at once. Revoking a row that is already revoked fails the
// transaction, which also catches a replayed/stolen refresh token being
// used a second time.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldID string, next security.RefreshTokenRecord) error {
	tx, err := r.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("starting refresh token rotation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := tx.RefreshToken.Update().
		Where(refreshtoken.IDEQ(oldID), refreshtoken.RevokedAtIsNil()).
		SetRevokedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("revoking refresh token %s: %w", oldID, err)
	}
	if n == 0 {
		return fmt.Errorf("refresh token %s already revoked or not found", oldID)
	}

	if _, err := tx.RefreshToken.Create().
		SetID(next.ID).
		SetUserID(next.UserID).
		SetOrgID(next.OrgID).
		SetTokenHash(next.TokenHash).
		SetUserAgent(next.UserAgent).
		SetIP(next.IP).
		SetExpiresAt(next.ExpiresAt).
		Save(ctx); err != nil {
		return fmt.Errorf("creating rotated refresh token for %s: %w", next.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing refresh token rotation: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every still-active refresh token owned by
// userID, used when an admin deactivates the user (spec.md §3's
// "logout-all revokes every token for that user").
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.client.RefreshToken.Update().
		Where(refreshtoken.UserIDEQ(userID), refreshtoken.RevokedAtIsNil()).
		SetRevokedAt(at).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("revoking refresh tokens for user %s: %w", userID, err)
	}
	return nil
}

func refreshTokenFromEnt(row *ent.RefreshToken) security.RefreshTokenRecord {
	return security.RefreshTokenRecord{
		ID:        row.ID,
		UserID:    row.UserID,
		OrgID:     row.OrgID,
		TokenHash: row.TokenHash,
		UserAgent: row.UserAgent,
		IP:        row.IP,
		ExpiresAt: row.ExpiresAt,
		RevokedAt: row.RevokedAt,
		CreatedAt: row.CreatedAt,
	}
}
