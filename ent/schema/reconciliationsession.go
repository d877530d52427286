package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// ReconciliationSession holds the schema definition for domain.Session:
// one PO/GRN/Invoice triple's run through the orchestrator FSM, per
// spec.md §3/§4.12.
type ReconciliationSession struct {
	ent.Schema
}

func (ReconciliationSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.String("po_id"),
		field.String("grn_id"),
		field.String("invoice_id"),
		field.Enum("status").
			Values("pending", "processing", "matched", "discrepancy_found", "exception", "samr_alert", "completed", "failed").
			Default("pending"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.JSON("verdict", &domain.Verdict{}).
			Optional().
			Comment("Snapshotted at completion"),
		field.JSON("agent_trace", []domain.AgentTraceEntry{}).
			Optional().
			Comment("One entry per orchestrator stage visit"),
		field.Text("error_message").
			Optional(),
		field.String("created_by").
			Optional(),
	}
}

func (ReconciliationSession) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("org", Org.Type).
			Ref("sessions").
			Field("org_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (ReconciliationSession) Indexes() []ent.Index {
	return []ent.Index{
		// Org-scoped listing is the default access path, per spec.md §4.16.
		index.Fields("org_id", "created_at"),
		index.Fields("org_id", "status"),
	}
}
