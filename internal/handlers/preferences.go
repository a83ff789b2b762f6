package handlers

import (
	"net/http"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
)

// PreferencesHandler handles onboarding and preference requests
type PreferencesHandler struct {
	prefs *services.PreferencesService
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(prefs *services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

// PreferencesResponse is the preference record with its derived views
type PreferencesResponse struct {
	Preferences            models.UserPreferences `json:"preferences"`
	OnboardingComplete     bool                   `json:"onboarding_complete"`
	HasRoommatePreferences bool                   `json:"has_roommate_preferences"`
	FormattedBudget        string                 `json:"formatted_budget"`
	ValidForMatching       bool                   `json:"valid_for_matching"`
	MissingFields          []string               `json:"missing_fields"`
}

// StepRequest moves the onboarding cursor
type StepRequest struct {
	Step int `json:"step" validate:"gte=1"`
}

// LivingSituationRequest selects the living situation
type LivingSituationRequest struct {
	LivingSituation models.LivingSituation `json:"living_situation" validate:"oneof=solo group seeking"`
}

// Routes mounts the preference routes
func (h *PreferencesHandler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Import)
	r.Delete("/", h.Reset)
	r.Put("/step", h.SetStep)
	r.Post("/onboarding/complete", h.CompleteOnboarding)
	r.Delete("/onboarding", h.ResetOnboarding)
	r.Patch("/apartment", h.UpdateApartment)
	r.Patch("/roommate", h.UpdateRoommate)
	r.Put("/living-situation", h.SetLivingSituation)
	r.Post("/amenities/{amenityID}/toggle", h.ToggleAmenity)
	r.Post("/space-requirements/{requirementID}/toggle", h.ToggleSpaceRequirement)
}

func (h *PreferencesHandler) view() PreferencesResponse {
	return PreferencesResponse{
		Preferences:            h.prefs.Preferences(),
		OnboardingComplete:     h.prefs.IsOnboardingComplete(),
		HasRoommatePreferences: h.prefs.HasRoommatePreferences(),
		FormattedBudget:        h.prefs.FormattedBudget(),
		ValidForMatching:       h.prefs.IsValidForMatching(),
		MissingFields:          h.prefs.MissingRequiredFields(),
	}
}

// Get handles GET /api/v1/preferences
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.view(), http.StatusOK)
}

// Import handles PUT /api/v1/preferences
func (h *PreferencesHandler) Import(w http.ResponseWriter, r *http.Request) {
	var prefs models.UserPreferences
	if err := decodeJSON(r, &prefs); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.prefs.ImportPreferences(r.Context(), prefs); err != nil {
		respondStoreError(w, err, "import preferences")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// Reset handles DELETE /api/v1/preferences
func (h *PreferencesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.ResetAllPreferences(r.Context()); err != nil {
		respondStoreError(w, err, "reset preferences")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// SetStep handles PUT /api/v1/preferences/step
func (h *PreferencesHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.prefs.SetCurrentStep(r.Context(), req.Step); err != nil {
		respondStoreError(w, err, "set onboarding step")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// CompleteOnboarding handles POST /api/v1/preferences/onboarding/complete
func (h *PreferencesHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.CompleteOnboarding(r.Context()); err != nil {
		respondStoreError(w, err, "complete onboarding")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// ResetOnboarding handles DELETE /api/v1/preferences/onboarding
func (h *PreferencesHandler) ResetOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.ResetOnboarding(r.Context()); err != nil {
		respondStoreError(w, err, "reset onboarding")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// UpdateApartment handles PATCH /api/v1/preferences/apartment
func (h *PreferencesHandler) UpdateApartment(w http.ResponseWriter, r *http.Request) {
	var patch models.ApartmentPreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.prefs.UpdateApartmentPreferences(r.Context(), patch); err != nil {
		respondStoreError(w, err, "update apartment preferences")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// UpdateRoommate handles PATCH /api/v1/preferences/roommate
func (h *PreferencesHandler) UpdateRoommate(w http.ResponseWriter, r *http.Request) {
	var patch models.RoommatePreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.prefs.UpdateRoommatePreferences(r.Context(), patch); err != nil {
		respondStoreError(w, err, "update roommate preferences")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// SetLivingSituation handles PUT /api/v1/preferences/living-situation
func (h *PreferencesHandler) SetLivingSituation(w http.ResponseWriter, r *http.Request) {
	var req LivingSituationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.prefs.SetLivingSituation(r.Context(), req.LivingSituation); err != nil {
		respondStoreError(w, err, "set living situation")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// ToggleAmenity handles POST /api/v1/preferences/amenities/{amenityID}/toggle
func (h *PreferencesHandler) ToggleAmenity(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.ToggleAmenity(r.Context(), chi.URLParam(r, "amenityID")); err != nil {
		respondStoreError(w, err, "toggle amenity")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}

// ToggleSpaceRequirement handles POST /api/v1/preferences/space-requirements/{requirementID}/toggle
func (h *PreferencesHandler) ToggleSpaceRequirement(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.ToggleSpaceRequirement(r.Context(), chi.URLParam(r, "requirementID")); err != nil {
		respondStoreError(w, err, "toggle space requirement")
		return
	}
	respondJSON(w, h.view(), http.StatusOK)
}
