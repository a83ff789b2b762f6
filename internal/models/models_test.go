package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUserPreferencesAreValid(t *testing.T) {
	prefs := DefaultUserPreferences(time.Now())

	require.NoError(t, Validate(prefs))
	assert.Equal(t, LivingSolo, prefs.LivingSituation)
	assert.False(t, prefs.OnboardingCompleted)
	assert.Equal(t, 1, prefs.CurrentStep)
	assert.Equal(t, BudgetRange{Min: 1000, Max: 3000}, prefs.ApartmentPreferences.Budget)
	assert.Equal(t, 12, prefs.ApartmentPreferences.Timeline.LeaseDuration)
}

func TestValidateRejectsOutOfRangeSliders(t *testing.T) {
	prefs := DefaultUserPreferences(time.Now())
	prefs.RoommatePreferences.Preferences.NoiseLevel = 9

	assert.Error(t, Validate(prefs))
}

func TestValidateRejectsUnknownLivingSituation(t *testing.T) {
	prefs := DefaultUserPreferences(time.Now())
	prefs.LivingSituation = "commune"

	assert.Error(t, Validate(prefs))
}

func TestShortlistExportValidation(t *testing.T) {
	now := time.Now()

	valid := ShortlistExport{
		Items: []ShortlistItem{
			{ApartmentID: "a1", CreatedAt: now},
			{ApartmentID: "a2", CreatedAt: now, Note: "sunny"},
		},
		ExportedAt: now,
		Version:    "1.0",
	}
	require.NoError(t, Validate(valid))

	duplicate := valid
	duplicate.Items = []ShortlistItem{
		{ApartmentID: "a1", CreatedAt: now},
		{ApartmentID: "a1", CreatedAt: now},
	}
	assert.Error(t, Validate(duplicate))

	missingDate := valid
	missingDate.Items = []ShortlistItem{{ApartmentID: "a1"}}
	assert.Error(t, Validate(missingDate))

	missingVersion := valid
	missingVersion.Version = ""
	assert.Error(t, Validate(missingVersion))
}

func TestFeedbackRatingsValidation(t *testing.T) {
	ok := PersonalFeedback{OverallRating: 5, CleanlinessRating: 4, LocationRating: 3, ValueRating: 2, AmenitiesRating: 1}
	require.NoError(t, Validate(ok))

	bad := ok
	bad.ValueRating = 0
	assert.Error(t, Validate(bad))
}

func TestApartmentHasAmenity(t *testing.T) {
	apt := Apartment{ID: "a1", Amenities: []string{"gym", "laundry"}}

	assert.True(t, apt.HasAmenity("gym"))
	assert.False(t, apt.HasAmenity("pool"))
}
