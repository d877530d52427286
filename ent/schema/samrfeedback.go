package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SAMRFeedback holds the schema definition for domain.SAMRFeedback: an
// analyst's ground-truth label on one SAMR run, the training signal the
// adaptive threshold service grid-searches over, per spec.md §4.9/§4.16.
type SAMRFeedback struct {
	ent.Schema
}

func (SAMRFeedback) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("session_id").
			Immutable(),
		field.String("org_id").
			Immutable(),
		field.Bool("samr_triggered"),
		field.Float("cosine_score"),
		field.Float("threshold_used"),
		field.Enum("feedback").
			Values("correct", "false_positive", "false_negative"),
		field.String("submitted_by"),
		field.Time("submitted_at").
			Default(time.Now).
			Immutable(),
	}
}

func (SAMRFeedback) Indexes() []ent.Index {
	return []ent.Index{
		// AdaptiveThresholdService.GetThreshold reads "recent feedback for
		// this org", newest first.
		index.Fields("org_id", "submitted_at"),
	}
}
