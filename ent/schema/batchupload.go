package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BatchUpload holds the schema definition for one bulk-upload batch: just
// enough to resolve the owning org and expected document count for C15's
// BatchOrg/DocumentSource, per spec.md §4.13's chord design and §4.15.
type BatchUpload struct {
	ent.Schema
}

func (BatchUpload) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.Int("expected_size"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (BatchUpload) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("org_id"),
	}
}
