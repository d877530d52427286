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

// DocumentVersion holds the schema definition for one immutable snapshot in
// a document's append-only version history (domain.DocumentVersion),
// keyed (document_id, version) with a monotone version number, per
// spec.md §4.16.
type DocumentVersion struct {
	ent.Schema
}

func (DocumentVersion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("document_id").
			Immutable(),
		field.Int("version").
			Immutable(),
		field.JSON("parsed", domain.ParsedDocument{}).
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.String("created_by").
			Optional().
			Immutable(),
	}
}

func (DocumentVersion) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("document", Document.Type).
			Ref("versions").
			Field("document_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (DocumentVersion) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("document_id", "version").
			Unique(),
	}
}
