package handlers

import (
	"net/http"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PreferencesReader exposes the current preference record
type PreferencesReader interface {
	Preferences() models.UserPreferences
}

// ApartmentHandler handles inventory, swipe deck and filter requests
type ApartmentHandler struct {
	apartments *services.ApartmentService
	prefs      PreferencesReader
}

// NewApartmentHandler creates a new apartment handler
func NewApartmentHandler(apartments *services.ApartmentService, prefs PreferencesReader) *ApartmentHandler {
	return &ApartmentHandler{apartments: apartments, prefs: prefs}
}

// ApartmentsRequest carries a batch of apartments
type ApartmentsRequest struct {
	Apartments []models.Apartment `json:"apartments" validate:"dive"`
}

// SwipeRequest records a decision on an apartment
type SwipeRequest struct {
	Kind models.SwipeKind `json:"kind" validate:"oneof=like pass super_like"`
}

// CursorRequest moves the deck cursor
type CursorRequest struct {
	Index int `json:"index"`
}

// ScoreRequest overrides one compatibility score
type ScoreRequest struct {
	Score float64 `json:"score"`
}

// InventoryResponse is the inventory and its filtered view
type InventoryResponse struct {
	Apartments []models.Apartment `json:"apartments"`
	Filtered   []models.Apartment `json:"filtered"`
	Total      int                `json:"total"`
	HasMore    bool               `json:"has_more"`
}

// DeckResponse is the swipe deck position
type DeckResponse struct {
	Apartment          *models.Apartment `json:"apartment"`
	Index              int               `json:"index"`
	CompatibilityScore float64           `json:"compatibility_score"`
	Progress           float64           `json:"progress"`
}

// SwipesResponse is the swipe log with its derived lists
type SwipesResponse struct {
	Log     []models.SwipeEvent `json:"log"`
	History models.SwipeHistory `json:"history"`
}

// FiltersResponse is the active filter set
type FiltersResponse struct {
	Filters     models.Filters `json:"filters"`
	ActiveCount int            `json:"active_count"`
	IsFiltered  bool           `json:"is_filtered"`
}

// CompatibilityResponse is the score map with its buckets
type CompatibilityResponse struct {
	Scores  map[string]float64 `json:"scores"`
	High    []models.Apartment `json:"high"`
	Average []models.Apartment `json:"average"`
}

// Routes mounts the apartment routes
func (h *ApartmentHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/", h.Replace)
	r.Post("/", h.Add)
	r.Post("/load-more", h.LoadMore)

	r.Get("/current", h.Current)
	r.Put("/cursor", h.GoTo)

	r.Get("/swipes", h.Swipes)
	r.Delete("/swipes", h.ResetSwipes)
	r.Post("/swipes/undo", h.Undo)

	r.Get("/filters", h.Filters)
	r.Patch("/filters", h.SetFilters)
	r.Delete("/filters", h.ClearFilters)
	r.Post("/filters/apply", h.ApplyFilters)

	r.Get("/compatibility", h.Compatibility)
	r.Post("/compatibility", h.CalculateCompatibility)

	r.Get("/{apartmentID}", h.Get)
	r.Put("/{apartmentID}", h.Update)
	r.Post("/{apartmentID}/swipe", h.Swipe)
	r.Put("/{apartmentID}/compatibility", h.SetScore)
}

func (h *ApartmentHandler) inventory() InventoryResponse {
	return InventoryResponse{
		Apartments: h.apartments.Apartments(),
		Filtered:   h.apartments.FilteredApartments(),
		Total:      h.apartments.TotalApartments(),
		HasMore:    h.apartments.HasMore(),
	}
}

func (h *ApartmentHandler) deck() DeckResponse {
	return DeckResponse{
		Apartment:          h.apartments.CurrentApartment(),
		Index:              h.apartments.CurrentIndex(),
		CompatibilityScore: h.apartments.CurrentCompatibilityScore(),
		Progress:           h.apartments.SwipeProgress(),
	}
}

func (h *ApartmentHandler) filters() FiltersResponse {
	return FiltersResponse{
		Filters:     h.apartments.Filters(),
		ActiveCount: h.apartments.ActiveFilterCount(),
		IsFiltered:  h.apartments.IsFiltered(),
	}
}

// List handles GET /api/v1/apartments
func (h *ApartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.inventory(), http.StatusOK)
}

// Replace handles PUT /api/v1/apartments
func (h *ApartmentHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req ApartmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.apartments.SetApartments(r.Context(), req.Apartments); err != nil {
		respondStoreError(w, err, "set apartments")
		return
	}
	respondJSON(w, h.inventory(), http.StatusOK)
}

// Add handles POST /api/v1/apartments
func (h *ApartmentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req ApartmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.apartments.AddApartments(r.Context(), req.Apartments); err != nil {
		respondStoreError(w, err, "add apartments")
		return
	}
	respondJSON(w, h.inventory(), http.StatusOK)
}

// LoadMore handles POST /api/v1/apartments/load-more
func (h *ApartmentHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	n, err := h.apartments.LoadMoreApartments(r.Context())
	if err != nil {
		respondStoreError(w, err, "load more apartments")
		return
	}
	log.Debug().Int("loaded", n).Msg("Apartments page loaded")
	respondJSON(w, h.inventory(), http.StatusOK)
}

// Get handles GET /api/v1/apartments/{apartmentID}
func (h *ApartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	apt := h.apartments.ApartmentByID(chi.URLParam(r, "apartmentID"))
	if apt == nil {
		respondError(w, "Apartment not found", http.StatusNotFound)
		return
	}
	respondJSON(w, apt, http.StatusOK)
}

// Update handles PUT /api/v1/apartments/{apartmentID}
func (h *ApartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var apt models.Apartment
	if err := decodeJSON(r, &apt); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if apt.ID != chi.URLParam(r, "apartmentID") {
		respondError(w, "apartment id does not match path", http.StatusBadRequest)
		return
	}
	if err := h.apartments.UpdateApartment(r.Context(), apt); err != nil {
		respondStoreError(w, err, "update apartment")
		return
	}
	respondJSON(w, apt, http.StatusOK)
}

// Current handles GET /api/v1/apartments/current
func (h *ApartmentHandler) Current(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.deck(), http.StatusOK)
}

// GoTo handles PUT /api/v1/apartments/cursor
func (h *ApartmentHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.apartments.GoToApartment(r.Context(), req.Index); err != nil {
		respondStoreError(w, err, "move cursor")
		return
	}
	respondJSON(w, h.deck(), http.StatusOK)
}

// Swipe handles POST /api/v1/apartments/{apartmentID}/swipe
func (h *ApartmentHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	apartmentID := chi.URLParam(r, "apartmentID")

	var err error
	switch req.Kind {
	case models.SwipeLike:
		err = h.apartments.SwipeLike(ctx, apartmentID)
	case models.SwipePass:
		err = h.apartments.SwipePass(ctx, apartmentID)
	case models.SwipeSuperLike:
		err = h.apartments.SwipeSuperLike(ctx, apartmentID)
	}
	if err != nil {
		respondStoreError(w, err, "record swipe")
		return
	}
	respondJSON(w, h.deck(), http.StatusOK)
}

// Swipes handles GET /api/v1/apartments/swipes
func (h *ApartmentHandler) Swipes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, SwipesResponse{
		Log:     h.apartments.SwipeLog(),
		History: h.apartments.SwipeHistory(),
	}, http.StatusOK)
}

// Undo handles POST /api/v1/apartments/swipes/undo
func (h *ApartmentHandler) Undo(w http.ResponseWriter, r *http.Request) {
	undone, err := h.apartments.UndoLastSwipe(r.Context())
	if err != nil {
		respondStoreError(w, err, "undo swipe")
		return
	}
	if undone == nil {
		respondError(w, "Nothing to undo", http.StatusConflict)
		return
	}
	respondJSON(w, undone, http.StatusOK)
}

// ResetSwipes handles DELETE /api/v1/apartments/swipes
func (h *ApartmentHandler) ResetSwipes(w http.ResponseWriter, r *http.Request) {
	if err := h.apartments.ResetSwipeState(r.Context()); err != nil {
		respondStoreError(w, err, "reset swipes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Filters handles GET /api/v1/apartments/filters
func (h *ApartmentHandler) Filters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.filters(), http.StatusOK)
}

// SetFilters handles PATCH /api/v1/apartments/filters
func (h *ApartmentHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var patch models.FilterPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.apartments.SetFilters(r.Context(), patch); err != nil {
		respondStoreError(w, err, "set filters")
		return
	}
	respondJSON(w, h.filters(), http.StatusOK)
}

// ClearFilters handles DELETE /api/v1/apartments/filters
func (h *ApartmentHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.apartments.ClearFilters(r.Context()); err != nil {
		respondStoreError(w, err, "clear filters")
		return
	}
	respondJSON(w, h.filters(), http.StatusOK)
}

// ApplyFilters handles POST /api/v1/apartments/filters/apply
func (h *ApartmentHandler) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.apartments.ApplyFilters(r.Context()); err != nil {
		respondStoreError(w, err, "apply filters")
		return
	}
	respondJSON(w, h.inventory(), http.StatusOK)
}

// Compatibility handles GET /api/v1/apartments/compatibility
func (h *ApartmentHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, CompatibilityResponse{
		Scores:  h.apartments.CompatibilityScores(),
		High:    h.apartments.HighCompatibilityApartments(),
		Average: h.apartments.AverageCompatibilityApartments(),
	}, http.StatusOK)
}

// CalculateCompatibility handles POST /api/v1/apartments/compatibility
func (h *ApartmentHandler) CalculateCompatibility(w http.ResponseWriter, r *http.Request) {
	if err := h.apartments.CalculateCompatibilityScores(r.Context(), h.prefs.Preferences()); err != nil {
		respondStoreError(w, err, "calculate compatibility")
		return
	}
	h.Compatibility(w, r)
}

// SetScore handles PUT /api/v1/apartments/{apartmentID}/compatibility
func (h *ApartmentHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.apartments.UpdateCompatibilityScore(r.Context(), chi.URLParam(r, "apartmentID"), req.Score); err != nil {
		respondStoreError(w, err, "update compatibility score")
		return
	}
	h.Compatibility(w, r)
}
