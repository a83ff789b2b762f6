package handlers

import (
	"net/http"
	"time"

	"renthunt-state/internal/middleware"
	"renthunt-state/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local device service, any origin
	},
}

// WebSocketHandler serves the store change feed
type WebSocketHandler struct {
	hub      *services.WSHub
	sessions middleware.TokenValidator
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, sessions middleware.TokenValidator) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	deviceID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.sessions)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	connID := h.hub.Register(deviceID, conn)
	defer h.hub.Unregister(connID)

	if err := h.hub.Send(connID, services.WSMessage{
		Type:      "subscribed",
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to send subscribed message")
		return
	}

	// The feed is one-way; reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("device_id", deviceID).Msg("WebSocket error")
			}
			return
		}
	}
}
