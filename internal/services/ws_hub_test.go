package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"renthunt-state/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHubServer serves websocket connections registered on hub
func newHubServer(t *testing.T, hub *WSHub) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register("device-1", conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWSHub_BroadcastsStateChanges(t *testing.T) {
	hub := NewWSHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, newHubServer(t, hub))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	changedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	hub.Publish(models.StateChange{Namespace: "renthunt-shortlist", Operation: "add", ChangedAt: changedAt})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, WSMessage{
		Type:      "state_changed",
		Namespace: "renthunt-shortlist",
		Operation: "add",
		Timestamp: changedAt.UnixMilli(),
	}, msg)
}

func TestWSHub_RunClosesConnectionsOnShutdown(t *testing.T) {
	hub := NewWSHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	dialHub(t, newHubServer(t, hub))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Zero(t, hub.ConnectionCount())
}

func TestWSHub_UnregisterAndSend(t *testing.T) {
	hub := NewWSHub()
	dialHub(t, newHubServer(t, hub))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	var connID string
	hub.mu.RLock()
	for id := range hub.connections {
		connID = id
	}
	hub.mu.RUnlock()

	require.NoError(t, hub.Send(connID, WSMessage{Type: "ping"}))

	hub.Unregister(connID)
	assert.Zero(t, hub.ConnectionCount())
	assert.Error(t, hub.Send(connID, WSMessage{Type: "ping"}))

	// a second unregister is a no-op
	hub.Unregister(connID)
}

func TestWSHub_PublishDropsWhenQueueFull(t *testing.T) {
	hub := NewWSHub()

	for i := 0; i < hubQueueSize+5; i++ {
		hub.Publish(models.StateChange{Namespace: "renthunt-apartments", Operation: "swipe_like"})
	}
	assert.Len(t, hub.events, hubQueueSize)
}
