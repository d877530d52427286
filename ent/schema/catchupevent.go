package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CatchupEvent holds the schema definition for one persisted progress-relay
// event (events.EventRecorder/CatchupStore, C14): recorded before publish
// so a client that reconnects mid-session can replay everything it missed
// on a channel since its last seen event id, per spec.md §4.14.
type CatchupEvent struct {
	ent.Schema
}

// Fields uses ent's default auto-incrementing int id: EventsSince/catchup
// replay compare client-reported last_event_id against this same integer.
func (CatchupEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("channel").
			Immutable(),
		field.JSON("payload", map[string]interface{}{}).
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (CatchupEvent) Indexes() []ent.Index {
	return []ent.Index{
		// EventsSince scans one channel's rows from a given id forward.
		index.Fields("channel", "id"),
	}
}
