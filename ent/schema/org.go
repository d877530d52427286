package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Org holds the schema definition for a tenant organization. Every
// org-scoped entity (User, Session, Document, AuditLogEntry, SAMRFeedback,
// WebhookEndpoint) carries an org_id so repository queries can be
// org-scoped by default, per spec.md §4.16's invariant.
type Org struct {
	ent.Schema
}

func (Org) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Org) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("users", User.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("sessions", ReconciliationSession.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("documents", Document.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}
