package handlers

import (
	"net/http"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FeedbackHandler handles post-viewing feedback requests
type FeedbackHandler struct {
	feedback *services.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedback *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// FeedbackOverview is the feedback state with its derived views
type FeedbackOverview struct {
	Feedback []models.Feedback            `json:"feedback"`
	Pending  []models.PendingFeedbackItem `json:"pending"`
	Overdue  []models.PendingFeedbackItem `json:"overdue"`
	DueToday []models.PendingFeedbackItem `json:"due_today"`
	Next     *models.PendingFeedbackItem  `json:"next_pending"`
	Stats    models.FeedbackStats         `json:"stats"`
	Averages models.AverageRatings        `json:"averages"`
	Current  models.CurrentFeedback       `json:"current"`
	Form     *models.Feedback             `json:"current_form"`
}

// PendingRequest queues a feedback request
type PendingRequest struct {
	ViewingID   string `json:"viewing_id" validate:"required"`
	ApartmentID string `json:"apartment_id" validate:"required"`
}

// DeadlineRequest moves a pending due date
type DeadlineRequest struct {
	DueDate time.Time `json:"due_date" validate:"required"`
}

// FeedbackStepRequest moves the wizard
type FeedbackStepRequest struct {
	Step models.FeedbackStep `json:"step" validate:"oneof=personal fairness complete"`
}

// ClearOldResponse reports how many records were removed
type ClearOldResponse struct {
	Removed int `json:"removed"`
}

// Routes mounts the feedback routes
func (h *FeedbackHandler) Routes(r chi.Router) {
	r.Get("/", h.Overview)
	r.Delete("/", h.ClearOld)
	r.Get("/export", h.Export)
	r.Post("/stats", h.UpdateStats)
	r.Put("/step", h.SetStep)
	r.Delete("/current", h.ClearCurrent)
	r.Get("/apartments/{apartmentID}", h.ForApartment)

	r.Post("/pending", h.AddPending)
	r.Delete("/pending/{viewingID}", h.RemovePending)
	r.Put("/pending/{viewingID}/deadline", h.ExtendDeadline)

	r.Get("/viewings/{viewingID}", h.ForViewing)
	r.Post("/viewings/{viewingID}/start", h.Start)
	r.Post("/viewings/{viewingID}/personal", h.SubmitPersonal)
	r.Post("/viewings/{viewingID}/fairness", h.SubmitFairness)
	r.Post("/viewings/{viewingID}/complete", h.Complete)

	r.Patch("/{feedbackID}", h.Update)
	r.Delete("/{feedbackID}", h.Delete)
}

func (h *FeedbackHandler) overview() FeedbackOverview {
	return FeedbackOverview{
		Feedback: h.feedback.All(),
		Pending:  h.feedback.Pending(),
		Overdue:  h.feedback.Overdue(),
		DueToday: h.feedback.DueToday(),
		Next:     h.feedback.NextPending(),
		Stats:    h.feedback.Stats(),
		Averages: h.feedback.AverageRatings(),
		Current:  h.feedback.Current(),
		Form:     h.feedback.CurrentForm(),
	}
}

// Overview handles GET /api/v1/feedback
func (h *FeedbackHandler) Overview(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.overview(), http.StatusOK)
}

// Start handles POST /api/v1/feedback/viewings/{viewingID}/start
func (h *FeedbackHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.Start(r.Context(), chi.URLParam(r, "viewingID")); err != nil {
		respondStoreError(w, err, "start feedback")
		return
	}
	respondJSON(w, h.feedback.Current(), http.StatusOK)
}

// SubmitPersonal handles POST /api/v1/feedback/viewings/{viewingID}/personal
func (h *FeedbackHandler) SubmitPersonal(w http.ResponseWriter, r *http.Request) {
	var personal models.PersonalFeedback
	if err := decodeJSON(r, &personal); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.feedback.SubmitPersonal(r.Context(), chi.URLParam(r, "viewingID"), personal); err != nil {
		respondStoreError(w, err, "submit personal feedback")
		return
	}
	respondJSON(w, h.feedback.Current(), http.StatusOK)
}

// SubmitFairness handles POST /api/v1/feedback/viewings/{viewingID}/fairness
func (h *FeedbackHandler) SubmitFairness(w http.ResponseWriter, r *http.Request) {
	var fairness models.FairnessFeedback
	if err := decodeJSON(r, &fairness); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fb, err := h.feedback.SubmitFairness(r.Context(), chi.URLParam(r, "viewingID"), fairness)
	if err != nil {
		respondStoreError(w, err, "submit fairness feedback")
		return
	}

	log.Info().
		Str("feedback_id", fb.ID).
		Str("viewing_id", fb.ViewingID).
		Int("overall_satisfaction", fb.OverallSatisfaction).
		Msg("Feedback submitted")

	respondJSON(w, fb, http.StatusCreated)
}

// Complete handles POST /api/v1/feedback/viewings/{viewingID}/complete
func (h *FeedbackHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.Complete(r.Context(), chi.URLParam(r, "viewingID")); err != nil {
		respondStoreError(w, err, "complete feedback")
		return
	}
	respondJSON(w, h.feedback.Current(), http.StatusOK)
}

// ForViewing handles GET /api/v1/feedback/viewings/{viewingID}
func (h *FeedbackHandler) ForViewing(w http.ResponseWriter, r *http.Request) {
	fb := h.feedback.ForViewing(chi.URLParam(r, "viewingID"))
	if fb == nil {
		respondError(w, "Feedback not found", http.StatusNotFound)
		return
	}
	respondJSON(w, fb, http.StatusOK)
}

// ForApartment handles GET /api/v1/feedback/apartments/{apartmentID}
func (h *FeedbackHandler) ForApartment(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.feedback.ForApartment(chi.URLParam(r, "apartmentID")), http.StatusOK)
}

// SetStep handles PUT /api/v1/feedback/step
func (h *FeedbackHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	var req FeedbackStepRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.feedback.SetStep(r.Context(), req.Step); err != nil {
		respondStoreError(w, err, "set feedback step")
		return
	}
	respondJSON(w, h.feedback.Current(), http.StatusOK)
}

// ClearCurrent handles DELETE /api/v1/feedback/current
func (h *FeedbackHandler) ClearCurrent(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.ClearCurrent(r.Context()); err != nil {
		respondStoreError(w, err, "clear feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPending handles POST /api/v1/feedback/pending
func (h *FeedbackHandler) AddPending(w http.ResponseWriter, r *http.Request) {
	var req PendingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := h.feedback.AddPending(r.Context(), req.ViewingID, req.ApartmentID)
	if err != nil {
		respondStoreError(w, err, "add pending feedback")
		return
	}
	respondJSON(w, item, http.StatusCreated)
}

// RemovePending handles DELETE /api/v1/feedback/pending/{viewingID}
func (h *FeedbackHandler) RemovePending(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.RemovePending(r.Context(), chi.URLParam(r, "viewingID")); err != nil {
		respondStoreError(w, err, "remove pending feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExtendDeadline handles PUT /api/v1/feedback/pending/{viewingID}/deadline
func (h *FeedbackHandler) ExtendDeadline(w http.ResponseWriter, r *http.Request) {
	var req DeadlineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.feedback.ExtendDeadline(r.Context(), chi.URLParam(r, "viewingID"), req.DueDate); err != nil {
		respondStoreError(w, err, "extend deadline")
		return
	}
	respondJSON(w, h.feedback.Pending(), http.StatusOK)
}

// Update handles PATCH /api/v1/feedback/{feedbackID}
func (h *FeedbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.FeedbackPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.feedback.Update(r.Context(), chi.URLParam(r, "feedbackID"), patch); err != nil {
		respondStoreError(w, err, "update feedback")
		return
	}
	respondJSON(w, h.overview(), http.StatusOK)
}

// Delete handles DELETE /api/v1/feedback/{feedbackID}
func (h *FeedbackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.Delete(r.Context(), chi.URLParam(r, "feedbackID")); err != nil {
		respondStoreError(w, err, "delete feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearOld handles DELETE /api/v1/feedback?older_than=RFC3339
func (h *FeedbackHandler) ClearOld(w http.ResponseWriter, r *http.Request) {
	olderThan, err := time.Parse(time.RFC3339, r.URL.Query().Get("older_than"))
	if err != nil {
		respondError(w, "older_than must be an RFC3339 time", http.StatusBadRequest)
		return
	}
	removed, err := h.feedback.ClearOld(r.Context(), olderThan)
	if err != nil {
		respondStoreError(w, err, "clear old feedback")
		return
	}
	respondJSON(w, ClearOldResponse{Removed: removed}, http.StatusOK)
}

// UpdateStats handles POST /api/v1/feedback/stats
func (h *FeedbackHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.UpdateStats(r.Context()); err != nil {
		respondStoreError(w, err, "update feedback stats")
		return
	}
	respondJSON(w, h.feedback.Stats(), http.StatusOK)
}

// Export handles GET /api/v1/feedback/export
func (h *FeedbackHandler) Export(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.feedback.ExportHistory(), http.StatusOK)
}
