package handlers

import (
	"net/http"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ViewingHandler handles scheduling requests
type ViewingHandler struct {
	viewings *services.ViewingService
	lookup   services.ApartmentLookup
}

// NewViewingHandler creates a new viewing handler
func NewViewingHandler(viewings *services.ViewingService, lookup services.ApartmentLookup) *ViewingHandler {
	return &ViewingHandler{viewings: viewings, lookup: lookup}
}

// ViewingView is a viewing with its apartment, which is nil when the inventory no longer holds it
type ViewingView struct {
	models.Viewing
	Apartment *models.Apartment `json:"apartment"`
}

// ScheduleResponse summarizes the schedule
type ScheduleResponse struct {
	Viewings       []ViewingView `json:"viewings"`
	Upcoming       []ViewingView `json:"upcoming"`
	Today          []ViewingView `json:"today"`
	TotalScheduled int           `json:"total_scheduled"`
	ThisWeek       int           `json:"this_week"`
}

// ScheduleRequest books a viewing
type ScheduleRequest struct {
	ApartmentID string    `json:"apartment_id" validate:"required"`
	DateTime    time.Time `json:"date_time" validate:"required"`
}

// RescheduleRequest moves a viewing
type RescheduleRequest struct {
	DateTime time.Time `json:"date_time" validate:"required"`
}

// StatusRequest changes a viewing status
type StatusRequest struct {
	Status models.ViewingStatus `json:"status" validate:"oneof=scheduled confirmed cancelled completed"`
}

// SlotsRequest generates the slots of one apartment and day
type SlotsRequest struct {
	ApartmentID string `json:"apartment_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
}

// BookSlotRequest books a generated slot
type BookSlotRequest struct {
	ApartmentID string `json:"apartment_id" validate:"required"`
}

// SelectionRequest records the calendar selection
type SelectionRequest struct {
	Date        string `json:"date,omitempty"`
	ApartmentID string `json:"apartment_id,omitempty"`
}

// CalendarResponse is the month view of the calendar
type CalendarResponse struct {
	Viewings       []ViewingView `json:"viewings"`
	BookedDates    []time.Time   `json:"booked_dates"`
	AvailableDates []time.Time   `json:"available_dates,omitempty"`
}

// BusinessHoursResponse answers a business-hours check
type BusinessHoursResponse struct {
	Hours           models.BusinessHours `json:"hours"`
	At              time.Time            `json:"at"`
	IsBusinessHour  bool                 `json:"is_business_hour"`
	NextBusinessDay time.Time            `json:"next_business_day"`
}

// Routes mounts the viewing routes
func (h *ViewingHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Schedule)
	r.Delete("/", h.CancelAll)
	r.Get("/export", h.Export)
	r.Get("/calendar", h.Calendar)
	r.Put("/selection", h.Select)
	r.Get("/business-hours", h.BusinessHours)
	r.Get("/preferences", h.Preferences)
	r.Patch("/preferences", h.UpdatePreferences)

	r.Get("/slots", h.Slots)
	r.Post("/slots", h.LoadSlots)
	r.Post("/slots/{slotID}/book", h.BookSlot)

	r.Get("/{viewingID}", h.Get)
	r.Delete("/{viewingID}", h.Cancel)
	r.Put("/{viewingID}/reschedule", h.Reschedule)
	r.Put("/{viewingID}/status", h.SetStatus)
}

func (h *ViewingHandler) enrich(viewings []models.Viewing) []ViewingView {
	out := make([]ViewingView, 0, len(viewings))
	for _, v := range viewings {
		out = append(out, ViewingView{Viewing: v, Apartment: h.lookup.ApartmentByID(v.ApartmentID)})
	}
	return out
}

// List handles GET /api/v1/viewings
func (h *ViewingHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, ScheduleResponse{
		Viewings:       h.enrich(h.viewings.All()),
		Upcoming:       h.enrich(h.viewings.Upcoming()),
		Today:          h.enrich(h.viewings.Today()),
		TotalScheduled: h.viewings.TotalScheduled(),
		ThisWeek:       h.viewings.ThisWeek(),
	}, http.StatusOK)
}

// Schedule handles POST /api/v1/viewings
func (h *ViewingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	viewing, err := h.viewings.Schedule(r.Context(), req.ApartmentID, req.DateTime)
	if err != nil {
		respondStoreError(w, err, "schedule viewing")
		return
	}

	log.Info().
		Str("viewing_id", viewing.ID).
		Str("apartment_id", viewing.ApartmentID).
		Time("date_time", viewing.DateTime).
		Msg("Viewing scheduled")

	respondJSON(w, h.enrich([]models.Viewing{*viewing})[0], http.StatusCreated)
}

// Get handles GET /api/v1/viewings/{viewingID}
func (h *ViewingHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewing := h.viewings.ByID(chi.URLParam(r, "viewingID"))
	if viewing == nil {
		respondError(w, "Viewing not found", http.StatusNotFound)
		return
	}
	respondJSON(w, h.enrich([]models.Viewing{*viewing})[0], http.StatusOK)
}

func (h *ViewingHandler) respondViewing(w http.ResponseWriter, viewingID string) {
	viewing := h.viewings.ByID(viewingID)
	if viewing == nil {
		respondError(w, "Viewing not found", http.StatusNotFound)
		return
	}
	respondJSON(w, h.enrich([]models.Viewing{*viewing})[0], http.StatusOK)
}

// Cancel handles DELETE /api/v1/viewings/{viewingID}
func (h *ViewingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	viewingID := chi.URLParam(r, "viewingID")
	if err := h.viewings.Cancel(r.Context(), viewingID); err != nil {
		respondStoreError(w, err, "cancel viewing")
		return
	}
	h.respondViewing(w, viewingID)
}

// CancelAll handles DELETE /api/v1/viewings
func (h *ViewingHandler) CancelAll(w http.ResponseWriter, r *http.Request) {
	if err := h.viewings.CancelAll(r.Context()); err != nil {
		respondStoreError(w, err, "cancel viewings")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reschedule handles PUT /api/v1/viewings/{viewingID}/reschedule
func (h *ViewingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	viewingID := chi.URLParam(r, "viewingID")
	if err := h.viewings.Reschedule(r.Context(), viewingID, req.DateTime); err != nil {
		respondStoreError(w, err, "reschedule viewing")
		return
	}
	h.respondViewing(w, viewingID)
}

// SetStatus handles PUT /api/v1/viewings/{viewingID}/status
func (h *ViewingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	viewingID := chi.URLParam(r, "viewingID")
	if err := h.viewings.SetStatus(r.Context(), viewingID, req.Status); err != nil {
		respondStoreError(w, err, "update viewing status")
		return
	}
	h.respondViewing(w, viewingID)
}

// LoadSlots handles POST /api/v1/viewings/slots
func (h *ViewingHandler) LoadSlots(w http.ResponseWriter, r *http.Request) {
	var req SlotsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	slots, err := h.viewings.LoadAvailableSlots(r.Context(), req.ApartmentID, date)
	if err != nil {
		respondStoreError(w, err, "load slots")
		return
	}
	respondJSON(w, slots, http.StatusOK)
}

// Slots handles GET /api/v1/viewings/slots?apartment_id=...&date=YYYY-MM-DD
func (h *ViewingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		date, err := parseDate(q.Get("date"))
		if err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSON(w, h.viewings.AvailableSlotsForDate(date), http.StatusOK)
	case q.Get("apartment_id") != "":
		respondJSON(w, h.viewings.AvailableSlotsForApartment(q.Get("apartment_id")), http.StatusOK)
	default:
		respondError(w, "apartment_id or date required", http.StatusBadRequest)
	}
}

// BookSlot handles POST /api/v1/viewings/slots/{slotID}/book
func (h *ViewingHandler) BookSlot(w http.ResponseWriter, r *http.Request) {
	var req BookSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.viewings.MarkSlotBooked(r.Context(), req.ApartmentID, chi.URLParam(r, "slotID")); err != nil {
		respondStoreError(w, err, "book slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Calendar handles GET /api/v1/viewings/calendar?month=YYYY-MM&apartment_id=...
func (h *ViewingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := time.Now()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := time.ParseInLocation("2006-01", v, time.Local)
		if err != nil {
			respondError(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
		month = m
	}

	resp := CalendarResponse{
		Viewings:    h.enrich(h.viewings.ForMonth(month)),
		BookedDates: h.viewings.BookedDates(),
	}
	if apartmentID := r.URL.Query().Get("apartment_id"); apartmentID != "" {
		resp.AvailableDates = h.viewings.AvailableDates(apartmentID)
	}
	respondJSON(w, resp, http.StatusOK)
}

// Select handles PUT /api/v1/viewings/selection
func (h *ViewingHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.viewings.SetSelectedDate(ctx, date); err != nil {
			respondStoreError(w, err, "select date")
			return
		}
	}
	if req.ApartmentID != "" {
		if err := h.viewings.SetSelectedApartment(ctx, req.ApartmentID); err != nil {
			respondStoreError(w, err, "select apartment")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// BusinessHours handles GET /api/v1/viewings/business-hours?at=RFC3339
func (h *ViewingHandler) BusinessHours(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, "invalid at, expected RFC3339", http.StatusBadRequest)
			return
		}
		at = t
	}
	respondJSON(w, BusinessHoursResponse{
		Hours:           h.viewings.BusinessHours(),
		At:              at,
		IsBusinessHour:  h.viewings.IsBusinessHour(at),
		NextBusinessDay: h.viewings.NextBusinessDay(at),
	}, http.StatusOK)
}

// Preferences handles GET /api/v1/viewings/preferences
func (h *ViewingHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.viewings.Preferences(), http.StatusOK)
}

// UpdatePreferences handles PATCH /api/v1/viewings/preferences
func (h *ViewingHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch models.ViewingPreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.viewings.UpdatePreferences(r.Context(), patch); err != nil {
		respondStoreError(w, err, "update viewing preferences")
		return
	}
	respondJSON(w, h.viewings.Preferences(), http.StatusOK)
}

// Export handles GET /api/v1/viewings/export
func (h *ViewingHandler) Export(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.viewings.ExportSchedule(), http.StatusOK)
}
