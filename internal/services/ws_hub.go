package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"renthunt-state/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	hubQueueSize = 256
	writeTimeout = 5 * time.Second
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace,omitempty"`
	Operation string `json:"operation,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// subscriber is one change-feed connection. writeMu serializes writes on conn.
type subscriber struct {
	deviceID string
	conn     *websocket.Conn
	writeMu  sync.Mutex
}

// WSHub fans store change events out to websocket subscribers
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*subscriber
	events      chan models.StateChange
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*subscriber),
		events:      make(chan models.StateChange, hubQueueSize),
	}
}

// Publish queues a change event. A full queue drops the event.
func (h *WSHub) Publish(change models.StateChange) {
	select {
	case h.events <- change:
	default:
		hubDroppedEvents.Inc()
		log.Warn().
			Str("namespace", change.Namespace).
			Str("operation", change.Operation).
			Msg("Change feed queue full, event dropped")
	}
}

// Run broadcasts queued events until ctx is done, then closes every connection
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case change := <-h.events:
			h.Broadcast(WSMessage{
				Type:      "state_changed",
				Namespace: change.Namespace,
				Operation: change.Operation,
				Timestamp: change.ChangedAt.UnixMilli(),
			})
		}
	}
}

// Register adds a subscriber connection for a device and returns its connection ID
func (h *WSHub) Register(deviceID string, conn *websocket.Conn) string {
	connID := uuid.New().String()

	h.mu.Lock()
	h.connections[connID] = &subscriber{deviceID: deviceID, conn: conn}
	h.mu.Unlock()

	hubConnections.Inc()
	log.Info().Str("device_id", deviceID).Str("conn_id", connID).Msg("WebSocket connection registered")
	return connID
}

// Unregister closes and removes a subscriber connection
func (h *WSHub) Unregister(connID string) {
	h.mu.Lock()
	sub, exists := h.connections[connID]
	if exists {
		delete(h.connections, connID)
	}
	h.mu.Unlock()

	if !exists {
		return
	}
	sub.conn.Close()
	hubConnections.Dec()
	log.Info().Str("device_id", sub.deviceID).Str("conn_id", connID).Msg("WebSocket connection unregistered")
}

// Send writes a message to one subscriber
func (h *WSHub) Send(connID string, message WSMessage) error {
	h.mu.RLock()
	sub, exists := h.connections[connID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("connection %s is not registered", connID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	sub.writeMu.Lock()
	sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = sub.conn.WriteMessage(websocket.TextMessage, data)
	sub.writeMu.Unlock()

	if err != nil {
		h.Unregister(connID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Broadcast writes a message to every subscriber
func (h *WSHub) Broadcast(message WSMessage) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		if err := h.Send(id, message); err != nil {
			log.Error().Err(err).Str("conn_id", id).Msg("Failed to deliver change event")
		}
	}
}

// ConnectionCount returns the number of subscribers
func (h *WSHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *WSHub) closeAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Unregister(id)
	}
}
