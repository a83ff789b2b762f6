package handlers

import (
	"context"
	"net/http"
	"testing"

	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShortlistRouter(t *testing.T) (chi.Router, *services.ShortlistService) {
	t.Helper()
	repo := newTestRepo(t)

	apartments := services.NewApartmentService(repo, nil, nil)
	require.NoError(t, apartments.SetApartments(context.Background(), []models.Apartment{
		apartment("a1", 1500), apartment("a2", 2100),
	}))
	shortlist := services.NewShortlistService(repo)

	r := chi.NewRouter()
	r.Route("/shortlist", NewShortlistHandler(shortlist, apartments, apartments).Routes)
	return r, shortlist
}

func TestShortlistHandler_Toggle(t *testing.T) {
	r, _ := newShortlistRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/shortlist/a1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled ToggleResponse
	decodeBody(t, rec, &toggled)
	assert.Equal(t, ToggleResponse{ApartmentID: "a1", Saved: true}, toggled)

	rec = doRequest(t, r, http.MethodGet, "/shortlist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view ShortlistResponse
	decodeBody(t, rec, &view)
	assert.Equal(t, 1, view.Count)
	require.Len(t, view.Apartments, 1)
	assert.Equal(t, "a1", view.Apartments[0].ID)

	rec = doRequest(t, r, http.MethodPost, "/shortlist/a1/toggle", nil)
	decodeBody(t, rec, &toggled)
	assert.False(t, toggled.Saved)
}

func TestShortlistHandler_Reorder(t *testing.T) {
	r, shortlist := newShortlistRouter(t)
	ctx := context.Background()
	require.NoError(t, shortlist.Add(ctx, "a1"))
	require.NoError(t, shortlist.Add(ctx, "a2"))

	rec := doRequest(t, r, http.MethodPut, "/shortlist/order", ReorderRequest{IDs: []string{"a2"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"a1", "a2"}, shortlist.SavedIDs())

	rec = doRequest(t, r, http.MethodPut, "/shortlist/order", ReorderRequest{IDs: []string{"a2", "a1"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a2", "a1"}, shortlist.SavedIDs())
}

func TestShortlistHandler_NotesAndSettings(t *testing.T) {
	r, shortlist := newShortlistRouter(t)
	require.NoError(t, shortlist.Add(context.Background(), "a1"))

	rec := doRequest(t, r, http.MethodPut, "/shortlist/a1/note", NoteRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPut, "/shortlist/a1/note", NoteRequest{Note: "near the T"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, shortlist.HasNote("a1"))

	rec = doRequest(t, r, http.MethodPatch, "/shortlist/settings", map[string]string{
		"sort_order": "alphabetical",
		"view_mode":  "list",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShortlistHandler_ImportRejectsMalformed(t *testing.T) {
	r, shortlist := newShortlistRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/shortlist/import", map[string]interface{}{
		"items": []map[string]string{{"apartment_id": "a1"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, shortlist.Count())
}
