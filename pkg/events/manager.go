package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// listenTimeout bounds how long a Subscribe may block when bridging a new
// channel through Redis, matching the teacher's LISTEN timeout guard.
const listenTimeout = 10 * time.Second

// Bridge is the narrow capability ConnectionManager needs from the Redis
// pub/sub bridge: subscribe/unsubscribe drive the underlying Redis
// PSubscribe channel set.
type Bridge interface {
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error
}

// ConnectionManager manages WebSocket connections and channel
// subscriptions for one process. Every pod has exactly one instance;
// cross-pod fan-out happens through the Redis Bridge calling Broadcast
// whenever a message arrives on a subscribed channel.
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	channels  map[string]map[string]bool
	channelMu sync.RWMutex

	catchupStore CatchupStore

	bridge   Bridge
	bridgeMu sync.RWMutex

	writeTimeout time.Duration
}

// Connection is a single WebSocket client. Like the teacher's Connection,
// subscriptions is only ever touched by the single goroutine running
// HandleConnection's read loop, so it needs no lock of its own; writes to
// the underlying gorilla connection go through writeMu since gorilla
// requires a single writer at a time.
type Connection struct {
	ID            string
	Conn          *websocket.Conn
	subscriptions map[string]bool
	writeMu       sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewConnectionManager creates a ConnectionManager. catchupStore may be
// nil, disabling catchup replay.
func NewConnectionManager(catchupStore CatchupStore, writeTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		connections:  make(map[string]*Connection),
		channels:     make(map[string]map[string]bool),
		catchupStore: catchupStore,
		writeTimeout: writeTimeout,
	}
}

// SetBridge wires the Redis pub/sub bridge after both it and the manager
// have been constructed.
func (m *ConnectionManager) SetBridge(b Bridge) {
	m.bridgeMu.Lock()
	defer m.bridgeMu.Unlock()
	m.bridge = b
}

// HandleConnection manages one WebSocket client's lifecycle. Called by the
// HTTP handler after upgrade; blocks until the connection closes.
func (m *ConnectionManager) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	connID := uuid.NewString()
	ctx, cancel := context.WithCancel(parentCtx)

	c := &Connection{
		ID:            connID,
		Conn:          conn,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}

	m.registerConnection(c)
	defer m.unregisterConnection(c)

	m.sendJSON(c, map[string]string{"type": "connection.established", "connection_id": connID})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid websocket message", "connection_id", connID, "error", err)
			continue
		}
		m.handleClientMessage(ctx, c, &msg)
	}
}

// Broadcast sends a raw event payload to every connection subscribed to
// channel. Called by the Redis bridge's receive loop whenever a message
// arrives, regardless of which pod originally published it.
func (m *ConnectionManager) Broadcast(channel string, payload []byte) {
	m.channelMu.RLock()
	connIDs, ok := m.channels[channel]
	if !ok {
		m.channelMu.RUnlock()
		return
	}
	ids := make([]string, 0, len(connIDs))
	for id := range connIDs {
		ids = append(ids, id)
	}
	m.channelMu.RUnlock()

	m.mu.RLock()
	conns := make([]*Connection, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.connections[id]; ok {
			conns = append(conns, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range conns {
		if err := m.sendRaw(c, payload); err != nil {
			slog.Warn("failed to send to websocket client", "connection_id", c.ID, "error", err)
		}
	}
}

// ActiveConnections returns the number of currently connected clients.
func (m *ConnectionManager) ActiveConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *ConnectionManager) subscriberCount(channel string) int {
	m.channelMu.RLock()
	defer m.channelMu.RUnlock()
	return len(m.channels[channel])
}

func (m *ConnectionManager) handleClientMessage(ctx context.Context, c *Connection, msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if msg.Channel == "" {
			m.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for subscribe"})
			return
		}
		if err := m.subscribe(c, msg.Channel); err != nil {
			m.sendJSON(c, map[string]string{"type": "subscription.error", "channel": msg.Channel, "message": "failed to subscribe to channel"})
			return
		}
		m.sendJSON(c, map[string]string{"type": "subscription.confirmed", "channel": msg.Channel})
		m.handleCatchup(ctx, c, msg.Channel, 0)

	case "unsubscribe":
		if msg.Channel == "" {
			m.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for unsubscribe"})
			return
		}
		m.unsubscribe(c, msg.Channel)

	case "catchup":
		if msg.Channel == "" {
			m.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for catchup"})
			return
		}
		if msg.LastEventID != nil {
			m.handleCatchup(ctx, c, msg.Channel, *msg.LastEventID)
		}

	case "ping":
		m.sendJSON(c, map[string]string{"type": "pong"})
	}
}

// subscribe registers c for channel, bridging a fresh Redis subscription
// when c is the channel's first subscriber. Synchronous, like the
// teacher's LISTEN call, so the subsequent auto-catchup is guaranteed to
// run with the bridge already active.
func (m *ConnectionManager) subscribe(c *Connection, channel string) error {
	m.channelMu.Lock()
	needsSubscribe := false
	if _, exists := m.channels[channel]; !exists {
		m.channels[channel] = make(map[string]bool)
		needsSubscribe = true
	}
	m.channels[channel][c.ID] = true
	m.channelMu.Unlock()

	if needsSubscribe {
		m.bridgeMu.RLock()
		b := m.bridge
		m.bridgeMu.RUnlock()
		if b != nil {
			subCtx, cancel := context.WithTimeout(context.Background(), listenTimeout)
			defer cancel()
			if err := b.Subscribe(subCtx, channel); err != nil {
				slog.Error("failed to bridge-subscribe channel", "channel", channel, "error", err)
				m.cleanupFailedChannel(c, channel)
				return err
			}
		}
	}

	c.subscriptions[channel] = true
	return nil
}

func (m *ConnectionManager) cleanupFailedChannel(triggering *Connection, channel string) {
	m.channelMu.Lock()
	affected := make([]string, 0, len(m.channels[channel]))
	for id := range m.channels[channel] {
		if id != triggering.ID {
			affected = append(affected, id)
		}
	}
	delete(m.channels, channel)
	m.channelMu.Unlock()

	if len(affected) == 0 {
		return
	}

	m.mu.RLock()
	conns := make([]*Connection, 0, len(affected))
	for _, id := range affected {
		if c, ok := m.connections[id]; ok {
			conns = append(conns, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range conns {
		slog.Warn("removing orphaned subscriber after bridge failure", "connection_id", c.ID, "channel", channel)
		m.sendJSON(c, map[string]string{"type": "subscription.error", "channel": channel, "message": "channel subscribe failed; subscription removed"})
	}
}

func (m *ConnectionManager) unsubscribe(c *Connection, channel string) {
	m.channelMu.Lock()
	if subs, exists := m.channels[channel]; exists {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(m.channels, channel)
			m.bridgeMu.RLock()
			b := m.bridge
			m.bridgeMu.RUnlock()
			if b != nil {
				go func() {
					m.channelMu.RLock()
					_, resubscribed := m.channels[channel]
					m.channelMu.RUnlock()
					if resubscribed {
						return
					}
					if err := b.Unsubscribe(context.Background(), channel); err != nil {
						slog.Error("failed to bridge-unsubscribe channel", "channel", channel, "error", err)
					}
				}()
			}
		}
	}
	m.channelMu.Unlock()

	delete(c.subscriptions, channel)
}

func (m *ConnectionManager) handleCatchup(ctx context.Context, c *Connection, channel string, lastEventID int) {
	if m.catchupStore == nil {
		return
	}

	evts, err := m.catchupStore.EventsSince(ctx, channel, lastEventID, catchupLimit+1)
	if err != nil {
		slog.Error("catchup query failed", "channel", channel, "error", err)
		return
	}

	hasMore := len(evts) > catchupLimit
	if hasMore {
		evts = evts[:catchupLimit]
	}

	for _, evt := range evts {
		evt.Payload["db_event_id"] = evt.ID
		payload, err := json.Marshal(evt.Payload)
		if err != nil {
			continue
		}
		if err := m.sendRaw(c, payload); err != nil {
			slog.Warn("failed to send catchup event", "connection_id", c.ID, "error", err)
			return
		}
	}

	if hasMore {
		m.sendJSON(c, map[string]any{"type": "catchup.overflow", "channel": channel, "has_more": true})
	}
}

func (m *ConnectionManager) registerConnection(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[c.ID] = c
}

func (m *ConnectionManager) unregisterConnection(c *Connection) {
	for ch := range c.subscriptions {
		m.unsubscribe(c, ch)
	}

	m.mu.Lock()
	delete(m.connections, c.ID)
	m.mu.Unlock()

	c.cancel()
	_ = c.Conn.Close()
}

func (m *ConnectionManager) sendJSON(c *Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal websocket message", "connection_id", c.ID, "error", err)
		return
	}
	if err := m.sendRaw(c, data); err != nil {
		slog.Warn("failed to send websocket message", "connection_id", c.ID, "error", err)
	}
}

func (m *ConnectionManager) sendRaw(c *Connection, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if m.writeTimeout > 0 {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	}
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}
