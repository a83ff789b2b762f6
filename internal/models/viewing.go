package models

import "time"

// ViewingStatus is the lifecycle state of a viewing
type ViewingStatus string

const (
	ViewingScheduled ViewingStatus = "scheduled"
	ViewingConfirmed ViewingStatus = "confirmed"
	ViewingCancelled ViewingStatus = "cancelled"
	ViewingCompleted ViewingStatus = "completed"
)

// Viewing is an appointment to visit an apartment
type Viewing struct {
	ID          string        `json:"id"`
	ApartmentID string        `json:"apartment_id"`
	DateTime    time.Time     `json:"date_time"`
	Status      ViewingStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TimeSlot is a bookable window generated for an apartment and day
type TimeSlot struct {
	ID          string    `json:"id"`
	ApartmentID string    `json:"apartment_id"`
	DateTime    time.Time `json:"date_time"`
	Duration    int       `json:"duration"`
	IsAvailable bool      `json:"is_available"`
	IsBooked    bool      `json:"is_booked"`
}

// ViewingExport is the portable form of the viewing schedule
type ViewingExport struct {
	Viewings   []Viewing `json:"viewings"`
	ExportedAt time.Time `json:"exported_at"`
	Version    string    `json:"version"`
}

// ViewingPreferences are scheduling preferences
type ViewingPreferences struct {
	SameDayPriority bool     `json:"same_day_priority"`
	PreferredTimes  []string `json:"preferred_times" validate:"dive,oneof=morning afternoon evening"`
	MaxDistance     float64  `json:"max_distance" validate:"gte=0"`
}

// ViewingPreferencesPatch is a partial update of ViewingPreferences
type ViewingPreferencesPatch struct {
	SameDayPriority *bool    `json:"same_day_priority,omitempty"`
	PreferredTimes  []string `json:"preferred_times,omitempty" validate:"omitempty,dive,oneof=morning afternoon evening"`
	MaxDistance     *float64 `json:"max_distance,omitempty" validate:"omitempty,gte=0"`
}

// DefaultViewingPreferences returns the preferences of a fresh store
func DefaultViewingPreferences() ViewingPreferences {
	return ViewingPreferences{
		SameDayPriority: true,
		PreferredTimes:  []string{"afternoon", "morning", "evening"},
		MaxDistance:     10,
	}
}

// OpeningHours is a daily window in "HH:MM" form
type OpeningHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusinessHours is the fixed weekly viewing schedule
type BusinessHours struct {
	MondayToThursday OpeningHours `json:"monday_to_thursday"`
	Friday           OpeningHours `json:"friday"`
	Weekend          bool         `json:"weekend"`
}

// DefaultBusinessHours returns Mon-Thu 10-19, Fri 10-17, weekends closed
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		MondayToThursday: OpeningHours{Start: "10:00", End: "19:00"},
		Friday:           OpeningHours{Start: "10:00", End: "17:00"},
		Weekend:          false,
	}
}
