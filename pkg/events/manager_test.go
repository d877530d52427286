package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatchupStore struct {
	events []CatchupEvent
	err    error
}

func (m *mockCatchupStore) EventsSince(_ context.Context, _ string, _, limit int) ([]CatchupEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

type fakeBridge struct {
	subscribed map[string]bool
}

func newFakeBridge() *fakeBridge { return &fakeBridge{subscribed: map[string]bool{}} }

func (b *fakeBridge) Subscribe(_ context.Context, channel string) error {
	b.subscribed[channel] = true
	return nil
}

func (b *fakeBridge) Unsubscribe(_ context.Context, channel string) error {
	delete(b.subscribed, channel)
	return nil
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func setupTestManager(t *testing.T, store CatchupStore) (*ConnectionManager, *httptest.Server) {
	t.Helper()
	manager := NewConnectionManager(store, 5*time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		manager.HandleConnection(r.Context(), conn)
	}))
	t.Cleanup(server.Close)
	return manager, server
}

func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + server.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func writeClientMessage(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHandleConnectionSendsEstablishedMessage(t *testing.T) {
	_, server := setupTestManager(t, nil)
	conn := connectWS(t, server)

	msg := readJSON(t, conn)
	assert.Equal(t, "connection.established", msg["type"])
	assert.NotEmpty(t, msg["connection_id"])
}

func TestSubscribeConfirmsAndBridgesChannel(t *testing.T) {
	manager, server := setupTestManager(t, nil)
	bridge := newFakeBridge()
	manager.SetBridge(bridge)
	conn := connectWS(t, server)
	readJSON(t, conn) // connection.established

	writeClientMessage(t, conn, ClientMessage{Action: "subscribe", Channel: "pipeline:sess-1"})
	msg := readJSON(t, conn)
	assert.Equal(t, "subscription.confirmed", msg["type"])
	assert.True(t, bridge.subscribed["pipeline:sess-1"])

	require.Eventually(t, func() bool {
		return manager.subscriberCount("pipeline:sess-1") == 1
	}, time.Second, 10*time.Millisecond)
}

func TestUnsubscribeRemovesSubscriber(t *testing.T) {
	manager, server := setupTestManager(t, nil)
	manager.SetBridge(newFakeBridge())
	conn := connectWS(t, server)
	readJSON(t, conn)

	writeClientMessage(t, conn, ClientMessage{Action: "subscribe", Channel: "pipeline:sess-2"})
	readJSON(t, conn)

	writeClientMessage(t, conn, ClientMessage{Action: "unsubscribe", Channel: "pipeline:sess-2"})

	require.Eventually(t, func() bool {
		return manager.subscriberCount("pipeline:sess-2") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestBroadcastDeliversToSubscribedConnection(t *testing.T) {
	manager, server := setupTestManager(t, nil)
	manager.SetBridge(newFakeBridge())
	conn := connectWS(t, server)
	readJSON(t, conn)

	writeClientMessage(t, conn, ClientMessage{Action: "subscribe", Channel: "pipeline:sess-3"})
	readJSON(t, conn) // subscription.confirmed

	manager.Broadcast("pipeline:sess-3", []byte(`{"type":"pipeline.checkpoint","stage":"EXTRACTED"}`))

	msg := readJSON(t, conn)
	assert.Equal(t, "pipeline.checkpoint", msg["type"])
}

func TestBroadcastIgnoresUnsubscribedChannel(t *testing.T) {
	manager, server := setupTestManager(t, nil)
	conn := connectWS(t, server)
	readJSON(t, conn)

	manager.Broadcast("pipeline:nobody-here", []byte(`{"type":"x"}`))

	// No message should arrive; confirm by sending a ping and expecting pong first.
	writeClientMessage(t, conn, ClientMessage{Action: "ping"})
	msg := readJSON(t, conn)
	assert.Equal(t, "pong", msg["type"])
}

func TestPingRespondsWithPong(t *testing.T) {
	_, server := setupTestManager(t, nil)
	conn := connectWS(t, server)
	readJSON(t, conn)

	writeClientMessage(t, conn, ClientMessage{Action: "ping"})
	msg := readJSON(t, conn)
	assert.Equal(t, "pong", msg["type"])
}

func TestCatchupReplaysStoredEvents(t *testing.T) {
	store := &mockCatchupStore{events: []CatchupEvent{
		{ID: 1, Payload: map[string]any{"type": "pipeline.checkpoint", "stage": "EXTRACTED"}},
		{ID: 2, Payload: map[string]any{"type": "pipeline.checkpoint", "stage": "QUANTIFIED"}},
	}}
	manager, server := setupTestManager(t, store)
	manager.SetBridge(newFakeBridge())
	conn := connectWS(t, server)
	readJSON(t, conn)

	writeClientMessage(t, conn, ClientMessage{Action: "subscribe", Channel: "pipeline:sess-4"})
	readJSON(t, conn) // subscription.confirmed

	first := readJSON(t, conn)
	assert.Equal(t, "EXTRACTED", first["stage"])
	second := readJSON(t, conn)
	assert.Equal(t, "QUANTIFIED", second["stage"])

	_ = manager.ActiveConnections()
}
