package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// badger logs through zerolog; keep test output to warnings and up
func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func newTestRepo(t *testing.T) *repository.SnapshotRepository {
	t.Helper()

	db, err := repository.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewSnapshotRepository(db)
}

// fixedClock returns a clock frozen at t
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// doRequest serves one request through h, encoding body as JSON when it is not nil
func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func apartment(id string, price float64) models.Apartment {
	return models.Apartment{
		ID:        id,
		Title:     "Apartment " + id,
		Address:   models.Address{City: "Boston", Neighborhood: "Fenway"},
		Price:     models.ApartmentPrice{Monthly: price, Currency: "USD"},
		Details:   models.ApartmentDetails{Bedrooms: 1, Bathrooms: 1},
		Amenities: []string{"laundry"},
		Images:    []string{},
		IsActive:  true,
	}
}
