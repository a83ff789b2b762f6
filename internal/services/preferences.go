package services

import (
	"context"
	"math"
	"sync"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var budgetPrinter = message.NewPrinter(language.English)

// PreferencesService holds onboarding progress and the preference trees of the device.
// No setter validates its input; IsValidForMatching and MissingRequiredFields are advisory.
type PreferencesService struct {
	storeBase

	mu    sync.RWMutex
	prefs models.UserPreferences
}

// NewPreferencesService creates a preferences store holding the defaults
func NewPreferencesService(repo SnapshotStore, opts ...Option) *PreferencesService {
	s := &PreferencesService{storeBase: newStoreBase(repository.NamespacePreferences, repo, opts)}
	s.prefs = models.DefaultUserPreferences(s.now())
	return s
}

// Load restores the persisted preferences over the defaults
func (s *PreferencesService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := models.DefaultUserPreferences(s.now())
	if _, err := s.restore(ctx, &restored); err != nil {
		return err
	}
	s.prefs = restored
	return nil
}

func (s *PreferencesService) update(ctx context.Context, operation string, fn func(p *models.UserPreferences)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.prefs)
	return s.commit(ctx, operation, s.prefs)
}

// SetCurrentStep moves the onboarding cursor
func (s *PreferencesService) SetCurrentStep(ctx context.Context, step int) error {
	return s.update(ctx, "set_current_step", func(p *models.UserPreferences) {
		p.CurrentStep = step
	})
}

// CompleteOnboarding marks onboarding as done. The step counter is left as is.
func (s *PreferencesService) CompleteOnboarding(ctx context.Context) error {
	return s.update(ctx, "complete_onboarding", func(p *models.UserPreferences) {
		p.OnboardingCompleted = true
	})
}

// ResetOnboarding restarts onboarding at step 1 without clearing collected data
func (s *PreferencesService) ResetOnboarding(ctx context.Context) error {
	return s.update(ctx, "reset_onboarding", func(p *models.UserPreferences) {
		p.OnboardingCompleted = false
		p.CurrentStep = 1
	})
}

// UpdateApartmentPreferences merges the non-nil parts of patch
func (s *PreferencesService) UpdateApartmentPreferences(ctx context.Context, patch models.ApartmentPreferencesPatch) error {
	return s.update(ctx, "update_apartment_preferences", func(p *models.UserPreferences) {
		ap := &p.ApartmentPreferences
		if patch.Location != nil {
			ap.Location = models.LocationPreference{
				City:          patch.Location.City,
				Neighborhoods: cloneStrings(patch.Location.Neighborhoods),
			}
		}
		if patch.Budget != nil {
			ap.Budget = *patch.Budget
		}
		if patch.Size != nil {
			ap.Size = *patch.Size
		}
		if patch.SpaceRequirements != nil {
			ap.SpaceRequirements = cloneStrings(patch.SpaceRequirements)
		}
		if patch.Amenities != nil {
			ap.Amenities = cloneStrings(patch.Amenities)
		}
		if patch.Timeline != nil {
			ap.Timeline = *patch.Timeline
		}
	})
}

// SetApartmentPreferences replaces the whole apartment preference tree
func (s *PreferencesService) SetApartmentPreferences(ctx context.Context, prefs models.ApartmentPreferences) error {
	return s.update(ctx, "set_apartment_preferences", func(p *models.UserPreferences) {
		p.ApartmentPreferences = cloneApartmentPreferences(prefs)
	})
}

// SetLocation replaces the target city and neighborhoods
func (s *PreferencesService) SetLocation(ctx context.Context, city string, neighborhoods []string) error {
	return s.update(ctx, "set_location", func(p *models.UserPreferences) {
		p.ApartmentPreferences.Location = models.LocationPreference{
			City:          city,
			Neighborhoods: cloneStrings(neighborhoods),
		}
	})
}

// SetBudget replaces the budget range. min <= max is not enforced.
func (s *PreferencesService) SetBudget(ctx context.Context, min, max float64) error {
	return s.update(ctx, "set_budget", func(p *models.UserPreferences) {
		p.ApartmentPreferences.Budget = models.BudgetRange{Min: min, Max: max}
	})
}

// SetSize replaces the minimum bedroom and bathroom counts
func (s *PreferencesService) SetSize(ctx context.Context, bedrooms, bathrooms int) error {
	return s.update(ctx, "set_size", func(p *models.UserPreferences) {
		p.ApartmentPreferences.Size = models.SizePreference{Bedrooms: bedrooms, Bathrooms: bathrooms}
	})
}

// ToggleSpaceRequirement adds the requirement when absent and removes it when present
func (s *PreferencesService) ToggleSpaceRequirement(ctx context.Context, requirementID string) error {
	return s.update(ctx, "toggle_space_requirement", func(p *models.UserPreferences) {
		p.ApartmentPreferences.SpaceRequirements = toggleString(p.ApartmentPreferences.SpaceRequirements, requirementID)
	})
}

// ToggleAmenity adds the amenity when absent and removes it when present
func (s *PreferencesService) ToggleAmenity(ctx context.Context, amenityID string) error {
	return s.update(ctx, "toggle_amenity", func(p *models.UserPreferences) {
		p.ApartmentPreferences.Amenities = toggleString(p.ApartmentPreferences.Amenities, amenityID)
	})
}

// SetTimeline replaces the move-in date and lease duration
func (s *PreferencesService) SetTimeline(ctx context.Context, timeline models.Timeline) error {
	return s.update(ctx, "set_timeline", func(p *models.UserPreferences) {
		p.ApartmentPreferences.Timeline = timeline
	})
}

// UpdateRoommatePreferences merges the non-nil parts of patch
func (s *PreferencesService) UpdateRoommatePreferences(ctx context.Context, patch models.RoommatePreferencesPatch) error {
	return s.update(ctx, "update_roommate_preferences", func(p *models.UserPreferences) {
		rp := &p.RoommatePreferences
		if patch.SeekingRoommates != nil {
			rp.SeekingRoommates = *patch.SeekingRoommates
		}
		if patch.HasGroup != nil {
			rp.HasGroup = *patch.HasGroup
		}
		if patch.GroupSize != nil {
			rp.GroupSize = *patch.GroupSize
		}
		if patch.Preferences != nil {
			rp.Preferences = *patch.Preferences
		}
	})
}

// SetRoommatePreferences replaces the whole roommate preference tree
func (s *PreferencesService) SetRoommatePreferences(ctx context.Context, prefs models.RoommatePreferences) error {
	return s.update(ctx, "set_roommate_preferences", func(p *models.UserPreferences) {
		p.RoommatePreferences = prefs
	})
}

// SetLivingSituation records how the user intends to live
func (s *PreferencesService) SetLivingSituation(ctx context.Context, situation models.LivingSituation) error {
	return s.update(ctx, "set_living_situation", func(p *models.UserPreferences) {
		p.LivingSituation = situation
	})
}

// SetSeekingRoommates flips whether the user looks for roommates
func (s *PreferencesService) SetSeekingRoommates(ctx context.Context, seeking bool) error {
	return s.update(ctx, "set_seeking_roommates", func(p *models.UserPreferences) {
		p.RoommatePreferences.SeekingRoommates = seeking
	})
}

// SetGroupSize records the size of the user's group
func (s *PreferencesService) SetGroupSize(ctx context.Context, size int) error {
	return s.update(ctx, "set_group_size", func(p *models.UserPreferences) {
		p.RoommatePreferences.GroupSize = size
	})
}

// ImportPreferences replaces the whole record after validating it
func (s *PreferencesService) ImportPreferences(ctx context.Context, prefs models.UserPreferences) error {
	if err := models.Validate(prefs); err != nil {
		return invalid(err)
	}
	return s.update(ctx, "import_preferences", func(p *models.UserPreferences) {
		*p = clonePreferences(prefs)
	})
}

// ResetAllPreferences restores the defaults
func (s *PreferencesService) ResetAllPreferences(ctx context.Context) error {
	return s.update(ctx, "reset_all_preferences", func(p *models.UserPreferences) {
		*p = models.DefaultUserPreferences(s.now())
	})
}

// Preferences returns a copy of the whole record
func (s *PreferencesService) Preferences() models.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePreferences(s.prefs)
}

// IsOnboardingComplete reports whether onboarding was finalized
func (s *PreferencesService) IsOnboardingComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.OnboardingCompleted
}

// HasRoommatePreferences reports whether the user seeks roommates
func (s *PreferencesService) HasRoommatePreferences() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.RoommatePreferences.SeekingRoommates
}

// BudgetRange returns the budget range
func (s *PreferencesService) BudgetRange() models.BudgetRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.ApartmentPreferences.Budget
}

// FormattedBudget renders the budget as "$1,000 - $3,000"
func (s *PreferencesService) FormattedBudget() string {
	b := s.BudgetRange()
	return budgetPrinter.Sprintf("$%d - $%d", int64(math.Round(b.Min)), int64(math.Round(b.Max)))
}

// IsValidForMatching reports whether city and a positive budget are set
func (s *PreferencesService) IsValidForMatching() bool {
	return len(s.MissingRequiredFields()) == 0
}

// MissingRequiredFields lists the fields matching still needs
func (s *PreferencesService) MissingRequiredFields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ap := s.prefs.ApartmentPreferences
	missing := []string{}
	if ap.Location.City == "" {
		missing = append(missing, "location")
	}
	if ap.Budget.Min <= 0 {
		missing = append(missing, "minimum budget")
	}
	if ap.Budget.Max <= 0 {
		missing = append(missing, "maximum budget")
	}
	return missing
}

// LocationFilter returns the location criteria
func (s *PreferencesService) LocationFilter() models.LocationPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc := s.prefs.ApartmentPreferences.Location
	return models.LocationPreference{City: loc.City, Neighborhoods: cloneStrings(loc.Neighborhoods)}
}

// AmenityFilter returns the wanted amenities
func (s *PreferencesService) AmenityFilter() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStrings(s.prefs.ApartmentPreferences.Amenities)
}

func cloneApartmentPreferences(in models.ApartmentPreferences) models.ApartmentPreferences {
	out := in
	out.Location.Neighborhoods = cloneStrings(in.Location.Neighborhoods)
	out.SpaceRequirements = cloneStrings(in.SpaceRequirements)
	out.Amenities = cloneStrings(in.Amenities)
	return out
}

func clonePreferences(in models.UserPreferences) models.UserPreferences {
	out := in
	out.ApartmentPreferences = cloneApartmentPreferences(in.ApartmentPreferences)
	return out
}
