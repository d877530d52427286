package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RefreshToken holds the schema definition for one issued refresh token:
// only its SHA-256 digest is stored (security.HashRefreshToken), alongside
// the user agent/ip it was issued to and its expiry, per spec.md §4.1. A
// successful POST /auth/refresh revokes the row it was looked up by and
// inserts its replacement in the same transaction (pkg/repo's
// RefreshTokenRepo.Rotate) rather than updating it in place, so the table
// itself is the audit trail of one user's session history.
type RefreshToken struct {
	ent.Schema
}

func (RefreshToken) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.String("token_hash").
			Unique().
			Sensitive().
			Immutable(),
		field.String("user_agent").
			Optional().
			Immutable(),
		field.String("ip").
			Optional().
			Immutable(),
		field.Time("expires_at").
			Immutable(),
		field.Time("revoked_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (RefreshToken) Indexes() []ent.Index {
	return []ent.Index{
		// GetActiveByHash's lookup path.
		index.Fields("token_hash"),
		// RevokeAllForUser's per-user sweep.
		index.Fields("user_id"),
	}
}
