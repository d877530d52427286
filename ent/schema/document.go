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

// Document holds the schema definition for one uploaded file's "latest"
// row — dual-written alongside an immutable DocumentVersion on every save,
// per spec.md §4.16's dual-write invariant.
type Document struct {
	ent.Schema
}

func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.String("filename"),
		field.Enum("doc_type").
			Values("PO", "GRN", "Invoice", "Unknown").
			Default("Unknown"),
		field.Float("classification_confidence").
			Default(0),
		field.Int("latest_version").
			Default(0).
			Comment("Monotone per document id; bumped on every dual-write save"),
		field.JSON("parsed", &domain.ParsedDocument{}).
			Optional().
			Comment("The current/latest parsed snapshot"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.String("batch_id").
			Optional().
			Comment("Non-empty when uploaded as part of a bulk batch (C15)"),
	}
}

func (Document) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("org", Org.Type).
			Ref("documents").
			Field("org_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("versions", DocumentVersion.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("org_id"),
		index.Fields("batch_id"),
	}
}
