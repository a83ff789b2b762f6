package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"renthunt-state/internal/config"
	"renthunt-state/internal/models"
	"renthunt-state/internal/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// badger logs through zerolog; keep test output to warnings and up
func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) *app {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Auth.Secret = "test-secret"

	a, err := openApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newRouter(newTestApp(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresSessionToken(t *testing.T) {
	router := newRouter(newTestApp(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var device models.Device
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&device))
	require.NotEmpty(t, device.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+device.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeed(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, seed(ctx, a.apartments, filepath.Join("..", "catalog.example.json"), 2))
	assert.Equal(t, 2, a.apartments.TotalApartments())

	err := seed(ctx, a.apartments, filepath.Join(t.TempDir(), "missing.json"), 2)
	assert.Error(t, err)
}

func TestCompatibilityWeightsFromConfig(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, services.DefaultCompatibilityWeights(), compatibilityWeights(cfg.Compatibility.Weights))

	off := 0.0
	cfg.Compatibility.Weights.Location = &off
	want := services.DefaultCompatibilityWeights()
	want.Location = 0
	assert.Equal(t, want, compatibilityWeights(cfg.Compatibility.Weights))
	assert.Equal(t, want, compatibilityWeights(config.WeightsConfig{Location: &off}))
}
