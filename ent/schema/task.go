package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Task holds the schema definition backing jobs.Store (C13): the durable
// queue row a Worker claims with `SELECT ... FOR UPDATE SKIP LOCKED`,
// heartbeats, and finalizes, per spec.md §4.13.
type Task struct {
	ent.Schema
}

func (Task) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("task_type").
			Values("process_document", "reconcile_session", "batch_callback").
			Immutable(),
		field.Bytes("payload").
			Immutable().
			Comment("Raw JSON task body (jobs.Task.Payload is json.RawMessage)"),
		field.String("batch_id").
			Optional().
			Comment("Non-empty for tasks belonging to a chord, per jobs.Task.BatchID"),
		field.Enum("status").
			Values("pending", "in_progress", "completed", "failed", "timed_out", "cancelled").
			Default("pending"),
		field.Int("attempts").
			Default(0),
		field.Int("max_attempts").
			Default(5),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("run_after").
			Default(time.Now).
			Comment("ClaimNext skips rows scheduled in the future, for retry backoff"),
		field.Time("claimed_at").
			Optional().
			Nillable(),
		field.Time("last_heartbeat_at").
			Optional().
			Nillable().
			Comment("Orphan detection compares this against OrphanThreshold"),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Text("error_message").
			Optional(),
		field.String("worker_id").
			Optional(),
	}
}

func (Task) Indexes() []ent.Index {
	return []ent.Index{
		// ClaimNext's SKIP LOCKED scan orders by status, then run_after.
		index.Fields("status", "run_after"),
		index.Fields("batch_id", "status"),
		index.Fields("status", "last_heartbeat_at"),
	}
}
