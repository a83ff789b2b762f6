package models

import "time"

// BuildingType classifies the building an apartment belongs to
type BuildingType string

const (
	BuildingTypeApartment  BuildingType = "apartment"
	BuildingTypeBrownstone BuildingType = "brownstone"
	BuildingTypeLoft       BuildingType = "loft"
)

// SplitType describes how rent is divided between roommates
type SplitType string

const (
	SplitTypeEqual        SplitType = "equal"
	SplitTypeProportional SplitType = "proportional"
)

// Address locates an apartment
type Address struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Neighborhood string `json:"neighborhood"`
}

// ApartmentPrice is the monthly rent of an apartment
type ApartmentPrice struct {
	Monthly   float64   `json:"monthly" validate:"gte=0"`
	Currency  string    `json:"currency"`
	SplitType SplitType `json:"split_type,omitempty"`
}

// ApartmentDetails holds the physical attributes of an apartment
type ApartmentDetails struct {
	Bedrooms     int          `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int          `json:"bathrooms" validate:"gte=0"`
	SquareFeet   int          `json:"square_feet" validate:"gte=0"`
	Floor        int          `json:"floor"`
	BuildingType BuildingType `json:"building_type,omitempty"`
	YearBuilt    int          `json:"year_built,omitempty"`
}

// Demographics describes a current roommate
type Demographics struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	University string `json:"university,omitempty"`
}

// Lifestyle holds free-form roommate habits
type Lifestyle struct {
	Hobbies       []string `json:"hobbies,omitempty"`
	Diet          string   `json:"diet,omitempty"`
	SleepSchedule string   `json:"sleep_schedule,omitempty"`
}

// RoommateProfile is a person already living in an apartment
type RoommateProfile struct {
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	Demographics Demographics         `json:"demographics"`
	Preferences  LifestylePreferences `json:"preferences"`
	Lifestyle    Lifestyle            `json:"lifestyle"`
}

// RoommateInfo is present on listings offering a room in a shared apartment
type RoommateInfo struct {
	AvailableRooms   int               `json:"available_rooms"`
	TotalRooms       int               `json:"total_rooms"`
	CurrentRoommates []RoommateProfile `json:"current_roommates"`
}

// Apartment is a catalog entry. It is only ever replaced as a whole record.
type Apartment struct {
	ID           string           `json:"id" validate:"required"`
	Title        string           `json:"title"`
	Address      Address          `json:"address"`
	Price        ApartmentPrice   `json:"price"`
	Details      ApartmentDetails `json:"details"`
	Amenities    []string         `json:"amenities"`
	Images       []string         `json:"images"`
	RoommateInfo *RoommateInfo    `json:"roommate_info,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	IsActive     bool             `json:"is_active"`
}

// HasAmenity reports whether the apartment lists the amenity
func (a *Apartment) HasAmenity(amenity string) bool {
	for _, have := range a.Amenities {
		if have == amenity {
			return true
		}
	}
	return false
}

// SwipeKind is the decision recorded for a swiped apartment
type SwipeKind string

const (
	SwipeLike      SwipeKind = "like"
	SwipePass      SwipeKind = "pass"
	SwipeSuperLike SwipeKind = "super_like"
)

// SwipeEvent is one entry of the chronological swipe log
type SwipeEvent struct {
	ApartmentID string    `json:"apartment_id"`
	Kind        SwipeKind `json:"kind"`
	SwipedAt    time.Time `json:"swiped_at"`
}

// SwipeHistory is the per-category view derived from the swipe log
type SwipeHistory struct {
	Liked      []string `json:"liked"`
	Passed     []string `json:"passed"`
	SuperLiked []string `json:"super_liked"`
}

// Filters are the active search criteria of the swipe deck
type Filters struct {
	PriceRange    [2]float64 `json:"price_range"`
	Bedrooms      int        `json:"bedrooms"`
	Bathrooms     int        `json:"bathrooms"`
	Amenities     []string   `json:"amenities"`
	Neighborhoods []string   `json:"neighborhoods"`
}

// DefaultFilters returns the filter criteria of a fresh store
func DefaultFilters() Filters {
	return Filters{
		PriceRange:    [2]float64{1000, 3000},
		Bedrooms:      1,
		Bathrooms:     1,
		Amenities:     []string{},
		Neighborhoods: []string{},
	}
}

// FilterPatch is a partial update of Filters; nil fields are left untouched
type FilterPatch struct {
	PriceRange    *[2]float64 `json:"price_range,omitempty"`
	Bedrooms      *int        `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms     *int        `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	Amenities     []string    `json:"amenities,omitempty"`
	Neighborhoods []string    `json:"neighborhoods,omitempty"`
}
