package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AuditLogEntry holds the schema definition for domain.AuditLogEntry: one
// row in the tamper-evident, hash-chained audit log security.Chain
// appends to, per spec.md §4.1/§4.16. Rows are never updated or deleted —
// security.Chain.Verify depends on the stored chain being exactly what was
// appended.
type AuditLogEntry struct {
	ent.Schema
}

func (AuditLogEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("action").
			Immutable(),
		field.String("resource_type").
			Immutable(),
		field.String("resource_id").
			Immutable(),
		field.Text("details").
			Immutable(),
		field.String("ip").
			Immutable(),
		field.String("prev_hash").
			Immutable(),
		field.String("row_hash").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (AuditLogEntry) Indexes() []ent.Index {
	return []ent.Index{
		// security.Chain.LastEntry/AllEntries both read in insertion order,
		// scoped to one org's chain.
		index.Fields("org_id", "created_at"),
	}
}
