package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/catchupevent"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/events"
)

// EventStore implements events.CatchupStore and events.EventRecorder over
// the CatchupEvent entity, per spec.md §4.14's reconnect-and-replay model.
type EventStore struct {
	client *database.Client
}

var (
	_ events.CatchupStore  = (*EventStore)(nil)
	_ events.EventRecorder = (*EventStore)(nil)
)

// RecordEvent persists one published event before it's relayed, returning
// the row's id so a reconnecting client can ask for everything after it.
func (s *EventStore) RecordEvent(ctx context.Context, channel string, payload []byte) (int, error) {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return 0, fmt.Errorf("decoding event payload for channel %s: %w", channel, err)
	}

	row, err := s.client.CatchupEvent.Create().
		SetChannel(channel).
		SetPayload(decoded).
		Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("recording event for channel %s: %w", channel, err)
	}
	return row.ID, nil
}

// EventsSince returns every event recorded on channel after sinceID, in
// order, capped at limit — the catchup replay a reconnecting client gets.
func (s *EventStore) EventsSince(ctx context.Context, channel string, sinceID, limit int) ([]events.CatchupEvent, error) {
	rows, err := s.client.CatchupEvent.Query().
		Where(
			catchupevent.ChannelEQ(channel),
			catchupevent.IDGT(sinceID),
		).
		Order(ent.Asc(catchupevent.FieldID)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying catchup events for channel %s: %w", channel, err)
	}
	out := make([]events.CatchupEvent, len(rows))
	for i, row := range rows {
		out[i] = events.CatchupEvent{ID: row.ID, Payload: row.Payload}
	}
	return out, nil
}
