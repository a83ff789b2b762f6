package handlers

import (
	"net/http"

	"renthunt-state/internal/services"

	"github.com/rs/zerolog/log"
)

// SessionHandler handles device session requests
type SessionHandler struct {
	sessionService *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// CreateSession handles POST /api/v1/session
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	device, err := h.sessionService.CreateDevice(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		respondError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	log.Info().Str("device_id", device.ID).Msg("Session created")

	respondJSON(w, device, http.StatusOK)
}
