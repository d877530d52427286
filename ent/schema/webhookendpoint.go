package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WebhookEndpoint holds the schema definition for one org-configured
// outbound webhook subscription, per spec.md §6's `/admin/webhooks*`
// surface.
type WebhookEndpoint struct {
	ent.Schema
}

func (WebhookEndpoint) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.String("url"),
		field.String("secret").
			Sensitive().
			Comment("HMAC-SHA256 signing key for outbound delivery"),
		field.Strings("events").
			Comment("Subscribed domain.WebhookEvent names; empty means all"),
		field.Bool("active").
			Default(true),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (WebhookEndpoint) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("deliveries", WebhookDelivery.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (WebhookEndpoint) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("org_id"),
	}
}
