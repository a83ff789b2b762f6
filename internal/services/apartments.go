package services

import (
	"context"
	"fmt"
	"sync"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"
)

// Compatibility buckets
const (
	highCompatibilityThreshold = 70
	averageCompatibilityMin    = 40
)

// ApartmentLookup resolves apartments by id for read-only cross-store views
type ApartmentLookup interface {
	ApartmentByID(id string) *models.Apartment
	Apartments() []models.Apartment
}

// ApartmentSource pages apartments in from ingestion
type ApartmentSource interface {
	Page(ctx context.Context, offset int) ([]models.Apartment, bool, error)
}

// apartmentsSnapshot is the persisted subset of the apartments store
type apartmentsSnapshot struct {
	Apartments          []models.Apartment  `json:"apartments"`
	SwipeLog            []models.SwipeEvent `json:"swipe_log"`
	ActiveFilters       models.Filters      `json:"active_filters"`
	CompatibilityScores map[string]float64  `json:"compatibility_scores"`
}

// ApartmentService holds the inventory, the swipe deck and its filters.
// Apartment records are immutable once stored; they are only replaced whole.
type ApartmentService struct {
	storeBase

	source ApartmentSource
	scorer *CompatibilityScorer

	mu           sync.RWMutex
	apartments   []models.Apartment
	filtered     []models.Apartment
	currentIndex int
	swipeLog     []models.SwipeEvent
	filters      models.Filters
	scores       map[string]float64
	hasMore      bool
}

// NewApartmentService creates an empty apartments store. source may be nil.
func NewApartmentService(repo SnapshotStore, source ApartmentSource, scorer *CompatibilityScorer, opts ...Option) *ApartmentService {
	if scorer == nil {
		scorer = NewCompatibilityScorer(DefaultCompatibilityWeights())
	}
	return &ApartmentService{
		storeBase: newStoreBase(repository.NamespaceApartments, repo, opts),
		source:    source,
		scorer:    scorer,
		filters:   models.DefaultFilters(),
		scores:    map[string]float64{},
		hasMore:   true,
	}
}

// Load restores the persisted inventory, swipe log, filters and scores.
// The filtered view is rebuilt from the restored filters and the cursor starts at 0.
func (s *ApartmentService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := apartmentsSnapshot{
		ActiveFilters:       models.DefaultFilters(),
		CompatibilityScores: map[string]float64{},
	}
	if _, err := s.restore(ctx, &snap); err != nil {
		return err
	}

	s.apartments = snap.Apartments
	s.swipeLog = snap.SwipeLog
	s.filters = snap.ActiveFilters
	s.scores = snap.CompatibilityScores
	if s.scores == nil {
		s.scores = map[string]float64{}
	}
	s.filtered = filterApartments(s.apartments, s.filters)
	s.currentIndex = 0
	return nil
}

func (s *ApartmentService) snapshot() apartmentsSnapshot {
	return apartmentsSnapshot{
		Apartments:          s.apartments,
		SwipeLog:            s.swipeLog,
		ActiveFilters:       s.filters,
		CompatibilityScores: s.scores,
	}
}

func (s *ApartmentService) update(ctx context.Context, operation string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	return s.commit(ctx, operation, s.snapshot())
}

// SetApartments replaces the inventory and the filtered view and rewinds the cursor
func (s *ApartmentService) SetApartments(ctx context.Context, apartments []models.Apartment) error {
	return s.update(ctx, "set_apartments", func() error {
		s.apartments = cloneApartments(apartments)
		s.filtered = cloneApartments(apartments)
		s.currentIndex = 0
		s.hasMore = len(apartments) > 0
		return nil
	})
}

// AddApartments appends to the inventory. The filtered view is reset to the full inventory.
func (s *ApartmentService) AddApartments(ctx context.Context, apartments []models.Apartment) error {
	return s.update(ctx, "add_apartments", func() error {
		s.apartments = append(cloneApartments(s.apartments), apartments...)
		s.filtered = cloneApartments(s.apartments)
		s.hasMore = true
		return nil
	})
}

// UpdateApartment replaces the record with the same id in the inventory and the filtered view
func (s *ApartmentService) UpdateApartment(ctx context.Context, apartment models.Apartment) error {
	return s.update(ctx, "update_apartment", func() error {
		idx := indexOfApartment(s.apartments, apartment.ID)
		if idx < 0 {
			return fmt.Errorf("apartment %s: %w", apartment.ID, ErrNotFound)
		}
		s.apartments = cloneApartments(s.apartments)
		s.apartments[idx] = apartment

		if fidx := indexOfApartment(s.filtered, apartment.ID); fidx >= 0 {
			s.filtered = cloneApartments(s.filtered)
			s.filtered[fidx] = apartment
		}
		return nil
	})
}

func (s *ApartmentService) swipe(ctx context.Context, apartmentID string, kind models.SwipeKind) error {
	return s.update(ctx, "swipe_"+string(kind), func() error {
		s.swipeLog = append(s.swipeLog, models.SwipeEvent{
			ApartmentID: apartmentID,
			Kind:        kind,
			SwipedAt:    s.now(),
		})
		s.currentIndex++
		return nil
	})
}

// SwipeLike records a like and advances the cursor. The id is not checked against the cursor.
func (s *ApartmentService) SwipeLike(ctx context.Context, apartmentID string) error {
	return s.swipe(ctx, apartmentID, models.SwipeLike)
}

// SwipePass records a pass and advances the cursor
func (s *ApartmentService) SwipePass(ctx context.Context, apartmentID string) error {
	return s.swipe(ctx, apartmentID, models.SwipePass)
}

// SwipeSuperLike records a super-like and advances the cursor
func (s *ApartmentService) SwipeSuperLike(ctx context.Context, apartmentID string) error {
	return s.swipe(ctx, apartmentID, models.SwipeSuperLike)
}

// UndoLastSwipe drops the most recent swipe and moves the cursor back.
// It returns nil when there is nothing to undo.
func (s *ApartmentService) UndoLastSwipe(ctx context.Context) (*models.SwipeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.swipeLog) == 0 || s.currentIndex == 0 {
		return nil, nil
	}

	last := s.swipeLog[len(s.swipeLog)-1]
	s.swipeLog = s.swipeLog[:len(s.swipeLog)-1:len(s.swipeLog)-1]
	s.currentIndex--

	return &last, s.commit(ctx, "undo_last_swipe", s.snapshot())
}

// ResetSwipeState clears the swipe log and rewinds the cursor
func (s *ApartmentService) ResetSwipeState(ctx context.Context) error {
	return s.update(ctx, "reset_swipe_state", func() error {
		s.swipeLog = nil
		s.currentIndex = 0
		return nil
	})
}

// SetFilters merges patch into the active filters without applying them
func (s *ApartmentService) SetFilters(ctx context.Context, patch models.FilterPatch) error {
	return s.update(ctx, "set_filters", func() error {
		f := s.filters
		if patch.PriceRange != nil {
			f.PriceRange = *patch.PriceRange
		}
		if patch.Bedrooms != nil {
			f.Bedrooms = *patch.Bedrooms
		}
		if patch.Bathrooms != nil {
			f.Bathrooms = *patch.Bathrooms
		}
		if patch.Amenities != nil {
			f.Amenities = cloneStrings(patch.Amenities)
		}
		if patch.Neighborhoods != nil {
			f.Neighborhoods = cloneStrings(patch.Neighborhoods)
		}
		s.filters = f
		return nil
	})
}

// ClearFilters restores the default filters without applying them
func (s *ApartmentService) ClearFilters(ctx context.Context) error {
	return s.update(ctx, "clear_filters", func() error {
		s.filters = models.DefaultFilters()
		return nil
	})
}

// ApplyFilters recomputes the filtered view from the inventory and rewinds the cursor
func (s *ApartmentService) ApplyFilters(ctx context.Context) error {
	return s.update(ctx, "apply_filters", func() error {
		s.filtered = filterApartments(s.apartments, s.filters)
		s.currentIndex = 0
		return nil
	})
}

// CalculateCompatibilityScores scores every apartment in the inventory against prefs
func (s *ApartmentService) CalculateCompatibilityScores(ctx context.Context, prefs models.UserPreferences) error {
	return s.update(ctx, "calculate_compatibility_scores", func() error {
		scores := make(map[string]float64, len(s.apartments))
		for i := range s.apartments {
			scores[s.apartments[i].ID] = s.scorer.Score(prefs, &s.apartments[i])
		}
		s.scores = scores
		return nil
	})
}

// UpdateCompatibilityScore overrides one score, clamped to 0..100
func (s *ApartmentService) UpdateCompatibilityScore(ctx context.Context, apartmentID string, score float64) error {
	return s.update(ctx, "update_compatibility_score", func() error {
		scores := make(map[string]float64, len(s.scores)+1)
		for k, v := range s.scores {
			scores[k] = v
		}
		scores[apartmentID] = clamp(score, 0, 100)
		s.scores = scores
		return nil
	})
}

// GoToApartment moves the cursor, clamped to the filtered view
func (s *ApartmentService) GoToApartment(ctx context.Context, index int) error {
	return s.update(ctx, "go_to_apartment", func() error {
		last := len(s.filtered) - 1
		if index > last {
			index = last
		}
		if index < 0 {
			index = 0
		}
		s.currentIndex = index
		return nil
	})
}

// LoadMoreApartments appends the next page of the source to the inventory.
// The page offset is the current inventory size.
func (s *ApartmentService) LoadMoreApartments(ctx context.Context) (int, error) {
	if s.source == nil {
		s.mu.Lock()
		s.hasMore = false
		s.mu.Unlock()
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page, more, err := s.source.Page(ctx, len(s.apartments))
	if err != nil {
		return 0, fmt.Errorf("failed to load more apartments: %w", err)
	}

	s.apartments = append(cloneApartments(s.apartments), page...)
	s.filtered = cloneApartments(s.apartments)
	s.hasMore = more
	return len(page), s.commit(ctx, "load_more_apartments", s.snapshot())
}

// CurrentApartment returns the apartment under the cursor, nil past the end
func (s *ApartmentService) CurrentApartment() *models.Apartment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentIndex < 0 || s.currentIndex >= len(s.filtered) {
		return nil
	}
	apt := s.filtered[s.currentIndex]
	return &apt
}

// CurrentCompatibilityScore returns the score of the apartment under the cursor, 0 when none
func (s *ApartmentService) CurrentCompatibilityScore() float64 {
	apt := s.CurrentApartment()
	if apt == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[apt.ID]
}

// CurrentIndex returns the cursor into the filtered view
func (s *ApartmentService) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// Apartments returns the whole inventory
func (s *ApartmentService) Apartments() []models.Apartment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneApartments(s.apartments)
}

// FilteredApartments returns the filtered view
func (s *ApartmentService) FilteredApartments() []models.Apartment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneApartments(s.filtered)
}

// ApartmentByID looks an apartment up in the inventory, nil when unknown
func (s *ApartmentService) ApartmentByID(id string) *models.Apartment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOfApartment(s.apartments, id)
	if idx < 0 {
		return nil
	}
	apt := s.apartments[idx]
	return &apt
}

// TotalApartments returns the inventory size
func (s *ApartmentService) TotalApartments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apartments)
}

// HasMore reports whether the source may hold more apartments
func (s *ApartmentService) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// SwipeProgress returns the cursor position as a percentage of the filtered view
func (s *ApartmentService) SwipeProgress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.filtered) == 0 {
		return 0
	}
	return float64(s.currentIndex) / float64(len(s.filtered)) * 100
}

// SwipeLog returns the chronological swipe log
func (s *ApartmentService) SwipeLog() []models.SwipeEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SwipeEvent, len(s.swipeLog))
	copy(out, s.swipeLog)
	return out
}

// SwipeHistory derives the liked, passed and super-liked lists from the swipe log
func (s *ApartmentService) SwipeHistory() models.SwipeHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := models.SwipeHistory{Liked: []string{}, Passed: []string{}, SuperLiked: []string{}}
	for _, ev := range s.swipeLog {
		switch ev.Kind {
		case models.SwipeLike:
			h.Liked = append(h.Liked, ev.ApartmentID)
		case models.SwipePass:
			h.Passed = append(h.Passed, ev.ApartmentID)
		case models.SwipeSuperLike:
			h.SuperLiked = append(h.SuperLiked, ev.ApartmentID)
		}
	}
	return h
}

// CompatibilityScores returns a copy of the score map
func (s *ApartmentService) CompatibilityScores() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

// HighCompatibilityApartments returns inventory apartments scoring above 70
func (s *ApartmentService) HighCompatibilityApartments() []models.Apartment {
	return s.selectByScore(func(score float64) bool {
		return score > highCompatibilityThreshold
	})
}

// AverageCompatibilityApartments returns inventory apartments scoring 40..70 inclusive
func (s *ApartmentService) AverageCompatibilityApartments() []models.Apartment {
	return s.selectByScore(func(score float64) bool {
		return score >= averageCompatibilityMin && score <= highCompatibilityThreshold
	})
}

func (s *ApartmentService) selectByScore(keep func(float64) bool) []models.Apartment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Apartment{}
	for _, apt := range s.apartments {
		if keep(s.scores[apt.ID]) {
			out = append(out, apt)
		}
	}
	return out
}

// Filters returns the active filters
func (s *ApartmentService) Filters() models.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := s.filters
	f.Amenities = cloneStrings(f.Amenities)
	f.Neighborhoods = cloneStrings(f.Neighborhoods)
	return f
}

// ActiveFilterCount counts the filters that differ from the defaults
func (s *ApartmentService) ActiveFilterCount() int {
	f := s.Filters()
	def := models.DefaultFilters()

	count := 0
	if f.PriceRange != def.PriceRange {
		count++
	}
	if f.Bedrooms > def.Bedrooms {
		count++
	}
	if f.Bathrooms > def.Bathrooms {
		count++
	}
	if len(f.Amenities) > 0 {
		count++
	}
	if len(f.Neighborhoods) > 0 {
		count++
	}
	return count
}

// IsFiltered reports whether any filter differs from the defaults
func (s *ApartmentService) IsFiltered() bool {
	return s.ActiveFilterCount() > 0
}

// filterApartments intersects every active predicate of f
func filterApartments(apartments []models.Apartment, f models.Filters) []models.Apartment {
	out := make([]models.Apartment, 0, len(apartments))
	for _, apt := range apartments {
		if matchesFilters(&apt, f) {
			out = append(out, apt)
		}
	}
	return out
}

func matchesFilters(apt *models.Apartment, f models.Filters) bool {
	if apt.Price.Monthly < f.PriceRange[0] || apt.Price.Monthly > f.PriceRange[1] {
		return false
	}
	if f.Bedrooms > 0 && apt.Details.Bedrooms < f.Bedrooms {
		return false
	}
	if f.Bathrooms > 0 && apt.Details.Bathrooms < f.Bathrooms {
		return false
	}
	for _, amenity := range f.Amenities {
		if !apt.HasAmenity(amenity) {
			return false
		}
	}
	if len(f.Neighborhoods) > 0 && !containsString(f.Neighborhoods, apt.Address.Neighborhood) {
		return false
	}
	return true
}

func indexOfApartment(apartments []models.Apartment, id string) int {
	for i := range apartments {
		if apartments[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneApartments(in []models.Apartment) []models.Apartment {
	out := make([]models.Apartment, len(in))
	copy(out, in)
	return out
}
