package handlers

import (
	"net/http"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
)

// ScoreReader exposes the compatibility scores used for ordering
type ScoreReader interface {
	CompatibilityScores() map[string]float64
}

// ShortlistHandler handles shortlist requests. Saved ids are resolved against the
// apartment lookup; ids it does not know are left out of the apartment views.
type ShortlistHandler struct {
	shortlist *services.ShortlistService
	lookup    services.ApartmentLookup
	scores    ScoreReader
}

// NewShortlistHandler creates a new shortlist handler
func NewShortlistHandler(shortlist *services.ShortlistService, lookup services.ApartmentLookup, scores ScoreReader) *ShortlistHandler {
	return &ShortlistHandler{shortlist: shortlist, lookup: lookup, scores: scores}
}

// ShortlistResponse is the shortlist with its resolved apartments
type ShortlistResponse struct {
	Items      []models.ShortlistItem   `json:"items"`
	Apartments []models.Apartment       `json:"apartments"`
	Settings   models.ShortlistSettings `json:"settings"`
	Count      int                      `json:"count"`
}

// NoteRequest sets an apartment note
type NoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// ReorderRequest is a manual ordering of the saved ids
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// ToggleResponse reports the saved state after a toggle
type ToggleResponse struct {
	ApartmentID string `json:"apartment_id"`
	Saved       bool   `json:"saved"`
}

// Routes mounts the shortlist routes
func (h *ShortlistHandler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Get("/notes", h.WithNotes)
	r.Put("/order", h.Reorder)
	r.Patch("/settings", h.SetSettings)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	r.Post("/{apartmentID}", h.Add)
	r.Delete("/{apartmentID}", h.Remove)
	r.Post("/{apartmentID}/toggle", h.Toggle)
	r.Put("/{apartmentID}/note", h.SetNote)
	r.Delete("/{apartmentID}/note", h.RemoveNote)
}

func (h *ShortlistHandler) view() ShortlistResponse {
	var scores map[string]float64
	if h.scores != nil {
		scores = h.scores.CompatibilityScores()
	}
	return ShortlistResponse{
		Items:      h.shortlist.WithMetadata(),
		Apartments: h.shortlist.Sorted(h.lookup, scores),
		Settings:   h.shortlist.Settings(),
		Count:      h.shortlist.Count(),
	}
}

// Get handles GET /api/v1/shortlist
func (h *ShortlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.view(), http.StatusOK)
}

// Add handles POST /api/v1/shortlist/{apartmentID}
func (h *ShortlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := h.shortlist.Add(r.Context(), chi.URLParam(r, "apartmentID")); err != nil {
		respondStoreError(w, err, "add to shortlist")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// Remove handles DELETE /api/v1/shortlist/{apartmentID}
func (h *ShortlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.shortlist.Remove(r.Context(), chi.URLParam(r, "apartmentID")); err != nil {
		respondStoreError(w, err, "remove from shortlist")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// Toggle handles POST /api/v1/shortlist/{apartmentID}/toggle
func (h *ShortlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	apartmentID := chi.URLParam(r, "apartmentID")
	saved, err := h.shortlist.Toggle(r.Context(), apartmentID)
	if err != nil {
		respondStoreError(w, err, "toggle shortlist")
		return
	}
	respondJSON(w, ToggleResponse{ApartmentID: apartmentID, Saved: saved}, http.StatusOK)
}

// SetNote handles PUT /api/v1/shortlist/{apartmentID}/note
func (h *ShortlistHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.shortlist.UpdateNote(r.Context(), chi.URLParam(r, "apartmentID"), req.Note); err != nil {
		respondStoreError(w, err, "set note")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// RemoveNote handles DELETE /api/v1/shortlist/{apartmentID}/note
func (h *ShortlistHandler) RemoveNote(w http.ResponseWriter, r *http.Request) {
	if err := h.shortlist.RemoveNote(r.Context(), chi.URLParam(r, "apartmentID")); err != nil {
		respondStoreError(w, err, "remove note")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// WithNotes handles GET /api/v1/shortlist/notes
func (h *ShortlistHandler) WithNotes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.shortlist.WithNotes(), http.StatusOK)
}

// Reorder handles PUT /api/v1/shortlist/order. Anything but a permutation of the saved ids is rejected.
func (h *ShortlistHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	applied, err := h.shortlist.Reorder(r.Context(), req.IDs)
	if err != nil {
		respondStoreError(w, err, "reorder shortlist")
		return
	}
	if !applied {
		respondError(w, "ids must be a permutation of the saved apartments", http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// SetSettings handles PATCH /api/v1/shortlist/settings
func (h *ShortlistHandler) SetSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.ShortlistSettings
	if err := decodeJSON(r, &settings); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.shortlist.SetSettings(r.Context(), settings); err != nil {
		respondStoreError(w, err, "update shortlist settings")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// Clear handles DELETE /api/v1/shortlist
func (h *ShortlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.shortlist.Clear(r.Context()); err != nil {
		respondStoreError(w, err, "clear shortlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/shortlist/export
func (h *ShortlistHandler) Export(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.shortlist.Export(), http.StatusOK)
}

// Import handles POST /api/v1/shortlist/import
func (h *ShortlistHandler) Import(w http.ResponseWriter, r *http.Request) {
	var data models.ShortlistExport
	if err := decodeJSON(r, &data); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.shortlist.Import(r.Context(), data); err != nil {
		respondStoreError(w, err, "import shortlist")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}
