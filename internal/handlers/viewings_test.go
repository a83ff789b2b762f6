package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViewingRouter(t *testing.T) (chi.Router, *services.ViewingService) {
	t.Helper()
	repo := newTestRepo(t)

	apartments := services.NewApartmentService(repo, nil, nil)
	require.NoError(t, apartments.SetApartments(context.Background(), []models.Apartment{apartment("a1", 1500)}))

	now := time.Date(2026, 3, 8, 9, 0, 0, 0, time.Local)
	viewings, err := services.NewViewingService(repo, models.DefaultBusinessHours(), 30, services.WithClock(fixedClock(now)))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/viewings", NewViewingHandler(viewings, apartments).Routes)
	return r, viewings
}

func TestViewingHandler_LoadSlots(t *testing.T) {
	r, _ := newViewingRouter(t)

	// 2026-03-13 is a Friday
	rec := doRequest(t, r, http.MethodPost, "/viewings/slots", SlotsRequest{ApartmentID: "a1", Date: "2026-03-13"})
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []models.TimeSlot
	decodeBody(t, rec, &slots)
	require.Len(t, slots, 14)
	for _, slot := range slots {
		assert.Less(t, slot.DateTime.Local().Hour(), 17)
	}

	rec = doRequest(t, r, http.MethodGet, "/viewings/slots?apartment_id=a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &slots)
	assert.Len(t, slots, 14)

	rec = doRequest(t, r, http.MethodGet, "/viewings/slots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/viewings/slots", SlotsRequest{ApartmentID: "a1", Date: "13/03/2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/viewings/slots/tomorrow/book", BookSlotRequest{ApartmentID: "a1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewingHandler_ScheduleAndCancel(t *testing.T) {
	r, viewings := newViewingRouter(t)

	at := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	rec := doRequest(t, r, http.MethodPost, "/viewings", ScheduleRequest{ApartmentID: "a1", DateTime: at})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created ViewingView
	decodeBody(t, rec, &created)
	assert.Equal(t, models.ViewingScheduled, created.Status)
	require.NotNil(t, created.Apartment)
	assert.Equal(t, "a1", created.Apartment.ID)

	rec = doRequest(t, r, http.MethodDelete, "/viewings/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ViewingCancelled, viewings.ByID(created.ID).Status)

	rec = doRequest(t, r, http.MethodDelete, "/viewings/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodPut, "/viewings/"+created.ID+"/status", StatusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/viewings", ScheduleRequest{ApartmentID: "a1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewingHandler_BusinessHours(t *testing.T) {
	r, _ := newViewingRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/viewings/business-hours?at=2026-03-13T17:30:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp BusinessHoursResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.IsBusinessHour)
	assert.Equal(t, time.Monday, resp.NextBusinessDay.Weekday())
	assert.Equal(t, models.DefaultBusinessHours(), resp.Hours)

	rec = doRequest(t, r, http.MethodGet, "/viewings/business-hours?at=noon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
