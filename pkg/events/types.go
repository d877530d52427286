// Package events implements the progress relay (C14): WebSocket delivery
// of reconciliation-pipeline progress to connected clients, with a Redis
// pub/sub bridge standing in for pkg/queue's original Postgres LISTEN/NOTIFY
// so any pod can broadcast an event any other pod's WebSocket clients are
// subscribed to.
package events

import "context"

// Event types delivered over a pipeline channel.
const (
	EventTypeCheckpoint    = "pipeline.checkpoint"
	EventTypeBatchProgress = "batch.progress"
	EventTypeWarning       = "pipeline.warning"
)

// catchupLimit bounds how many missed events a client can replay in one
// catchup response before being told to fall back to a REST reload.
const catchupLimit = 200

// PipelineChannel returns the Redis/WebSocket channel name for one
// reconciliation session's progress events.
func PipelineChannel(sessionID string) string {
	return "pipeline:" + sessionID
}

// BatchChannel returns the channel name for one batch upload's progress.
func BatchChannel(batchID string) string {
	return "batch:" + batchID
}

// ClientMessage is the JSON structure for client -> server WebSocket
// messages, unchanged in shape from the teacher's subscribe/unsubscribe/
// catchup/ping protocol.
type ClientMessage struct {
	Action      string `json:"action"`
	Channel     string `json:"channel,omitempty"`
	LastEventID *int   `json:"last_event_id,omitempty"`
}

// CatchupEvent is one row returned by a CatchupStore query.
type CatchupEvent struct {
	ID      int
	Payload map[string]any
}

// CatchupStore is the narrow persistence capability this package needs
// from C16 to replay missed events to a late-subscribing client; a nil
// CatchupStore disables catchup entirely (auto-subscribe still works, it
// just starts from "now").
type CatchupStore interface {
	EventsSince(ctx context.Context, channel string, sinceID, limit int) ([]CatchupEvent, error)
}
