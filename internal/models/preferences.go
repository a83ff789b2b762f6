package models

import "time"

// LivingSituation is how the user intends to live
type LivingSituation string

const (
	LivingSolo    LivingSituation = "solo"
	LivingGroup   LivingSituation = "group"
	LivingSeeking LivingSituation = "seeking"
)

// LifestylePreferences are roommate compatibility sliders on a 1..5 scale
type LifestylePreferences struct {
	Cleanliness  int  `json:"cleanliness" validate:"min=1,max=5"`
	SocialLevel  int  `json:"social_level" validate:"min=1,max=5"`
	NoiseLevel   int  `json:"noise_level" validate:"min=1,max=5"`
	WorkSchedule int  `json:"work_schedule" validate:"min=1,max=5"`
	Smoking      bool `json:"smoking"`
	Pets         bool `json:"pets"`
	Drinking     int  `json:"drinking" validate:"min=1,max=5"`
	Guests       int  `json:"guests" validate:"min=1,max=5"`
}

// LocationPreference is the target city and neighborhoods
type LocationPreference struct {
	City          string   `json:"city"`
	Neighborhoods []string `json:"neighborhoods"`
}

// BudgetRange is the monthly rent range. Min <= Max is expected but not enforced.
type BudgetRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0"`
}

// SizePreference is the minimum room count
type SizePreference struct {
	Bedrooms  int `json:"bedrooms" validate:"gte=0"`
	Bathrooms int `json:"bathrooms" validate:"gte=0"`
}

// Timeline is the desired move-in date and lease length in months
type Timeline struct {
	MoveInDate    time.Time `json:"move_in_date"`
	LeaseDuration int       `json:"lease_duration" validate:"gte=0"`
}

// ApartmentPreferences are the apartment search criteria collected during onboarding
type ApartmentPreferences struct {
	Location          LocationPreference `json:"location"`
	Budget            BudgetRange        `json:"budget"`
	Size              SizePreference     `json:"size"`
	SpaceRequirements []string           `json:"space_requirements"`
	Amenities         []string           `json:"amenities"`
	Timeline          Timeline           `json:"timeline"`
}

// ApartmentPreferencesPatch is a partial update of ApartmentPreferences
type ApartmentPreferencesPatch struct {
	Location          *LocationPreference `json:"location,omitempty"`
	Budget            *BudgetRange        `json:"budget,omitempty"`
	Size              *SizePreference     `json:"size,omitempty"`
	SpaceRequirements []string            `json:"space_requirements,omitempty"`
	Amenities         []string            `json:"amenities,omitempty"`
	Timeline          *Timeline           `json:"timeline,omitempty"`
}

// RoommatePreferences are the roommate compatibility criteria
type RoommatePreferences struct {
	SeekingRoommates bool                 `json:"seeking_roommates"`
	HasGroup         bool                 `json:"has_group"`
	GroupSize        int                  `json:"group_size" validate:"gte=1"`
	Preferences      LifestylePreferences `json:"preferences"`
}

// RoommatePreferencesPatch is a partial update of RoommatePreferences
type RoommatePreferencesPatch struct {
	SeekingRoommates *bool                 `json:"seeking_roommates,omitempty"`
	HasGroup         *bool                 `json:"has_group,omitempty"`
	GroupSize        *int                  `json:"group_size,omitempty" validate:"omitempty,gte=1"`
	Preferences      *LifestylePreferences `json:"preferences,omitempty"`
}

// UserPreferences is the single preference record of the device
type UserPreferences struct {
	OnboardingCompleted  bool                 `json:"onboarding_completed"`
	CurrentStep          int                  `json:"current_step" validate:"gte=1"`
	ApartmentPreferences ApartmentPreferences `json:"apartment_preferences"`
	RoommatePreferences  RoommatePreferences  `json:"roommate_preferences"`
	LivingSituation      LivingSituation      `json:"living_situation" validate:"oneof=solo group seeking"`
}

// DefaultUserPreferences returns the preferences of a fresh device
func DefaultUserPreferences(now time.Time) UserPreferences {
	return UserPreferences{
		OnboardingCompleted: false,
		CurrentStep:         1,
		ApartmentPreferences: ApartmentPreferences{
			Location:          LocationPreference{City: "", Neighborhoods: []string{}},
			Budget:            BudgetRange{Min: 1000, Max: 3000},
			Size:              SizePreference{Bedrooms: 1, Bathrooms: 1},
			SpaceRequirements: []string{},
			Amenities:         []string{},
			Timeline:          Timeline{MoveInDate: now, LeaseDuration: 12},
		},
		RoommatePreferences: RoommatePreferences{
			SeekingRoommates: false,
			HasGroup:         false,
			GroupSize:        1,
			Preferences: LifestylePreferences{
				Cleanliness:  3,
				SocialLevel:  3,
				NoiseLevel:   3,
				WorkSchedule: 3,
				Smoking:      false,
				Pets:         false,
				Drinking:     3,
				Guests:       3,
			},
		},
		LivingSituation: LivingSolo,
	}
}
