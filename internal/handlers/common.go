package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends v as a JSON body
func respondJSON(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeJSON reads the request body into v and checks its validation tags
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := models.Validate(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondStoreError maps store errors to status codes. Persist failures are logged
// and reported as 500 since the in-memory change already happened.
func respondStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNoActiveFeedback), errors.Is(err, services.ErrPersonalFeedbackMissing):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Str("action", action).Msg("Store operation failed")
		respondError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

// parseDate reads a YYYY-MM-DD day in local time
func parseDate(v string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
	}
	return d, nil
}
