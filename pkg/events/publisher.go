package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// EventRecorder is the narrow persistence capability C16 must supply for
// a Publisher's persistent events to survive a subscriber's reconnect;
// nil disables persistence (events still publish, just without catchup
// replay for clients who missed them).
type EventRecorder interface {
	RecordEvent(ctx context.Context, channel string, payload []byte) (id int, err error)
}

// Publisher publishes pipeline progress events over Redis pub/sub,
// optionally persisting them first so CatchupStore can replay them to a
// reconnecting client, per spec.md §4.14 — generalized from the teacher's
// persistAndNotify/notifyOnly split in pkg/events/publisher.go.
type Publisher struct {
	client   *redis.Client
	recorder EventRecorder
}

// NewPublisher constructs a Publisher. recorder may be nil.
func NewPublisher(client *redis.Client, recorder EventRecorder) *Publisher {
	return &Publisher{client: client, recorder: recorder}
}

// PublishCheckpoint implements orchestrator.CheckpointPublisher: one call
// per pipeline stage visit. Fire-and-forget like the teacher's
// publishSessionStatus — a relay failure must never abort the
// reconciliation run itself, so errors are logged, not returned.
func (p *Publisher) PublishCheckpoint(sessionID string, stage domain.PipelineStage, errMsg string) {
	payload := CheckpointPayload{
		Type:      EventTypeCheckpoint,
		SessionID: sessionID,
		Stage:     stage,
		Error:     errMsg,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := p.publish(context.Background(), PipelineChannel(sessionID), payload); err != nil {
		slog.Warn("failed to publish checkpoint event", "session_id", sessionID, "stage", stage, "error", err)
	}
}

// EmitWarning implements extraction.ProgressEmitter: a fire-and-forget
// relay of one document's degraded-extraction warning to the session's
// pipeline channel, mirroring PublishCheckpoint's never-block-the-pipeline
// contract.
func (p *Publisher) EmitWarning(sessionID, documentID, message string) {
	payload := WarningPayload{
		Type:       EventTypeWarning,
		SessionID:  sessionID,
		DocumentID: documentID,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := p.publish(context.Background(), PipelineChannel(sessionID), payload); err != nil {
		slog.Warn("failed to publish extraction warning event", "session_id", sessionID, "document_id", documentID, "error", err)
	}
}

// PublishBatchProgress publishes a batch.progress event, used by the
// batch-upload progress page once each ProcessDocument task settles.
func (p *Publisher) PublishBatchProgress(ctx context.Context, batchID string, completed, total int) error {
	payload := BatchProgressPayload{
		Type:      EventTypeBatchProgress,
		BatchID:   batchID,
		Completed: completed,
		Total:     total,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return p.publish(ctx, BatchChannel(batchID), payload)
}

// publish records (if a recorder is wired) then publishes to Redis,
// injecting the recorded id the way the teacher's injectDBEventIDAndTruncate
// added db_event_id for catchup position tracking.
func (p *Publisher) publish(ctx context.Context, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if p.recorder != nil {
		id, err := p.recorder.RecordEvent(ctx, channel, raw)
		if err != nil {
			slog.Warn("failed to persist event for catchup", "channel", channel, "error", err)
		} else {
			raw, err = injectEventID(raw, id)
			if err != nil {
				return err
			}
		}
	}

	return p.client.Publish(ctx, channel, raw).Err()
}

func injectEventID(raw []byte, id int) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["db_event_id"] = id
	return json.Marshal(m)
}
