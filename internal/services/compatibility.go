package services

import (
	"math"
	"strings"

	"renthunt-state/internal/models"
)

// CompatibilityWeights are the coefficients of each scoring factor
type CompatibilityWeights struct {
	Budget    float64 `json:"budget"`
	Size      float64 `json:"size"`
	Amenities float64 `json:"amenities"`
	Location  float64 `json:"location"`
	Roommates float64 `json:"roommates"`
}

// DefaultCompatibilityWeights returns the baseline weights
func DefaultCompatibilityWeights() CompatibilityWeights {
	return CompatibilityWeights{
		Budget:    1.0,
		Size:      0.8,
		Amenities: 0.7,
		Location:  0.9,
		Roommates: 1.0,
	}
}

// CompatibilityScorer computes a deterministic 0..100 score of an apartment against user preferences.
//
// Each factor yields a value in 0..1 and contributes weight*value. Factors the user expressed
// nothing about are skipped. With no active factor the score is a neutral 50.
type CompatibilityScorer struct {
	weights CompatibilityWeights
}

// NewCompatibilityScorer creates a scorer
func NewCompatibilityScorer(w CompatibilityWeights) *CompatibilityScorer {
	return &CompatibilityScorer{weights: w}
}

// Score rates apt for prefs with 0.1 precision
func (c *CompatibilityScorer) Score(prefs models.UserPreferences, apt *models.Apartment) float64 {
	type factor struct {
		weight float64
		value  float64
		active bool
	}

	ap := prefs.ApartmentPreferences
	budget, budgetOK := budgetFit(ap.Budget, apt.Price.Monthly)
	size, sizeOK := sizeFit(ap.Size, apt.Details)
	amenities, amenitiesOK := amenityCoverage(ap.Amenities, apt)
	location, locationOK := locationFit(ap.Location, apt.Address)
	roommates, roommatesOK := roommateFit(prefs.RoommatePreferences, apt.RoommateInfo)

	factors := []factor{
		{c.weights.Budget, budget, budgetOK},
		{c.weights.Size, size, sizeOK},
		{c.weights.Amenities, amenities, amenitiesOK},
		{c.weights.Location, location, locationOK},
		{c.weights.Roommates, roommates, roommatesOK},
	}

	var sumW, sum float64
	for _, f := range factors {
		if !f.active || f.weight <= 0 {
			continue
		}
		sumW += f.weight
		sum += f.weight * clamp01(f.value)
	}

	if sumW <= 0 {
		return 50
	}
	score := math.Round(sum/sumW*1000) / 10
	return clamp(score, 0, 100)
}

// budgetFit is 1 inside the range, 0.9 below it, and decays to 0 at 25% over the maximum
func budgetFit(b models.BudgetRange, price float64) (float64, bool) {
	if b.Max <= 0 {
		return 0, false
	}
	switch {
	case price > b.Max:
		return 1 - (price-b.Max)/(0.25*b.Max), true
	case price < b.Min:
		return 0.9, true
	default:
		return 1, true
	}
}

func sizeFit(want models.SizePreference, d models.ApartmentDetails) (float64, bool) {
	var parts []float64
	if want.Bedrooms > 0 {
		parts = append(parts, ratioAtLeast(d.Bedrooms, want.Bedrooms))
	}
	if want.Bathrooms > 0 {
		parts = append(parts, ratioAtLeast(d.Bathrooms, want.Bathrooms))
	}
	if len(parts) == 0 {
		return 0, false
	}
	return mean(parts), true
}

func amenityCoverage(wanted []string, apt *models.Apartment) (float64, bool) {
	if len(wanted) == 0 {
		return 0, false
	}
	have := 0
	for _, a := range wanted {
		if apt.HasAmenity(a) {
			have++
		}
	}
	return float64(have) / float64(len(wanted)), true
}

// locationFit prefers a listed neighborhood, then the same city
func locationFit(loc models.LocationPreference, addr models.Address) (float64, bool) {
	city := strings.TrimSpace(loc.City)
	if city == "" && len(loc.Neighborhoods) == 0 {
		return 0, false
	}
	sameCity := city != "" && strings.EqualFold(city, strings.TrimSpace(addr.City))

	if len(loc.Neighborhoods) > 0 {
		for _, n := range loc.Neighborhoods {
			if strings.EqualFold(n, addr.Neighborhood) {
				return 1, true
			}
		}
		if sameCity {
			return 0.5, true
		}
		return 0, true
	}
	if sameCity {
		return 1, true
	}
	return 0, true
}

// roommateFit averages lifestyle agreement with every current roommate.
// It only applies when the user seeks roommates and the listing has some.
func roommateFit(rp models.RoommatePreferences, info *models.RoommateInfo) (float64, bool) {
	if !rp.SeekingRoommates || info == nil || len(info.CurrentRoommates) == 0 {
		return 0, false
	}

	var total float64
	for _, mate := range info.CurrentRoommates {
		total += lifestyleAgreement(rp.Preferences, mate.Preferences)
	}
	return total / float64(len(info.CurrentRoommates)), true
}

func lifestyleAgreement(a, b models.LifestylePreferences) float64 {
	sliders := [][2]int{
		{a.Cleanliness, b.Cleanliness},
		{a.SocialLevel, b.SocialLevel},
		{a.NoiseLevel, b.NoiseLevel},
		{a.WorkSchedule, b.WorkSchedule},
		{a.Drinking, b.Drinking},
		{a.Guests, b.Guests},
	}

	var sum float64
	for _, pair := range sliders {
		// sliders span 1..5, so the largest distance is 4
		sum += 1 - math.Abs(float64(pair[0]-pair[1]))/4
	}
	sum += boolAgreement(a.Smoking, b.Smoking)
	sum += boolAgreement(a.Pets, b.Pets)
	return clamp01(sum / float64(len(sliders)+2))
}

func boolAgreement(a, b bool) float64 {
	if a == b {
		return 1
	}
	return 0
}

func ratioAtLeast(have, want int) float64 {
	if have >= want {
		return 1
	}
	if have <= 0 {
		return 0
	}
	return float64(have) / float64(want)
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
