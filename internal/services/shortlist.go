package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"
)

const shortlistExportVersion = "1.0"

// shortlistSnapshot is the persisted subset of the shortlist store
type shortlistSnapshot struct {
	SavedApartments []string                  `json:"saved_apartments"`
	CreatedAt       map[string]time.Time      `json:"created_at"`
	Notes           map[string]string         `json:"notes"`
	SortOrder       models.ShortlistSortOrder `json:"sort_order"`
	ViewMode        models.ShortlistViewMode  `json:"view_mode"`
}

// ShortlistService holds the ordered, duplicate-free list of saved apartment ids
type ShortlistService struct {
	storeBase

	mu        sync.RWMutex
	saved     []string
	createdAt map[string]time.Time
	notes     map[string]string
	sortOrder models.ShortlistSortOrder
	viewMode  models.ShortlistViewMode
}

// NewShortlistService creates an empty shortlist store
func NewShortlistService(repo SnapshotStore, opts ...Option) *ShortlistService {
	return &ShortlistService{
		storeBase: newStoreBase(repository.NamespaceShortlist, repo, opts),
		saved:     []string{},
		createdAt: map[string]time.Time{},
		notes:     map[string]string{},
		sortOrder: models.SortRecent,
		viewMode:  models.ViewGrid,
	}
}

// Load restores the persisted shortlist
func (s *ShortlistService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := shortlistSnapshot{SortOrder: models.SortRecent, ViewMode: models.ViewGrid}
	if _, err := s.restore(ctx, &snap); err != nil {
		return err
	}

	s.saved = snap.SavedApartments
	s.createdAt = snap.CreatedAt
	s.notes = snap.Notes
	s.sortOrder = snap.SortOrder
	s.viewMode = snap.ViewMode
	if s.saved == nil {
		s.saved = []string{}
	}
	if s.createdAt == nil {
		s.createdAt = map[string]time.Time{}
	}
	if s.notes == nil {
		s.notes = map[string]string{}
	}
	return nil
}

func (s *ShortlistService) snapshot() shortlistSnapshot {
	return shortlistSnapshot{
		SavedApartments: s.saved,
		CreatedAt:       s.createdAt,
		Notes:           s.notes,
		SortOrder:       s.sortOrder,
		ViewMode:        s.viewMode,
	}
}

func (s *ShortlistService) contains(apartmentID string) bool {
	return containsString(s.saved, apartmentID)
}

func (s *ShortlistService) add(apartmentID string) {
	s.saved = append(cloneStrings(s.saved), apartmentID)
	s.createdAt[apartmentID] = s.now()
}

func (s *ShortlistService) remove(apartmentID string) {
	out := make([]string, 0, len(s.saved))
	for _, id := range s.saved {
		if id != apartmentID {
			out = append(out, id)
		}
	}
	s.saved = out
	delete(s.createdAt, apartmentID)
	delete(s.notes, apartmentID)
}

// Add saves an apartment. Saving an id twice is a no-op.
func (s *ShortlistService) Add(ctx context.Context, apartmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contains(apartmentID) {
		return nil
	}
	s.add(apartmentID)
	return s.commit(ctx, "add", s.snapshot())
}

// Remove drops an apartment together with its timestamp and note
func (s *ShortlistService) Remove(ctx context.Context, apartmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(apartmentID)
	return s.commit(ctx, "remove", s.snapshot())
}

// Toggle adds the apartment when absent and removes it when present.
// It reports whether the apartment is saved afterwards.
func (s *ShortlistService) Toggle(ctx context.Context, apartmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := !s.contains(apartmentID)
	if saved {
		s.add(apartmentID)
	} else {
		s.remove(apartmentID)
	}
	return saved, s.commit(ctx, "toggle", s.snapshot())
}

// AddNote attaches a note to an apartment id
func (s *ShortlistService) AddNote(ctx context.Context, apartmentID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes[apartmentID] = note
	return s.commit(ctx, "add_note", s.snapshot())
}

// UpdateNote replaces the note of an apartment id
func (s *ShortlistService) UpdateNote(ctx context.Context, apartmentID, note string) error {
	return s.AddNote(ctx, apartmentID, note)
}

// RemoveNote drops the note of an apartment id
func (s *ShortlistService) RemoveNote(ctx context.Context, apartmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notes, apartmentID)
	return s.commit(ctx, "remove_note", s.snapshot())
}

// SetSettings updates the sort order and view mode; empty fields are left untouched
func (s *ShortlistService) SetSettings(ctx context.Context, settings models.ShortlistSettings) error {
	if err := models.Validate(settings); err != nil {
		return invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.SortOrder != "" {
		s.sortOrder = settings.SortOrder
	}
	if settings.ViewMode != "" {
		s.viewMode = settings.ViewMode
	}
	return s.commit(ctx, "set_settings", s.snapshot())
}

// SetSortOrder selects the shortlist ordering
func (s *ShortlistService) SetSortOrder(ctx context.Context, order models.ShortlistSortOrder) error {
	return s.SetSettings(ctx, models.ShortlistSettings{SortOrder: order})
}

// SetViewMode selects the shortlist layout
func (s *ShortlistService) SetViewMode(ctx context.Context, mode models.ShortlistViewMode) error {
	return s.SetSettings(ctx, models.ShortlistSettings{ViewMode: mode})
}

// Reorder applies a manual order only when ids is a permutation of the saved ids.
// Anything else is ignored. It reports whether the order was applied.
func (s *ShortlistService) Reorder(ctx context.Context, ids []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !isPermutation(ids, s.saved) {
		return false, nil
	}
	s.saved = cloneStrings(ids)
	return true, s.commit(ctx, "reorder", s.snapshot())
}

// Clear empties the shortlist and its metadata; settings are kept
func (s *ShortlistService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saved = []string{}
	s.createdAt = map[string]time.Time{}
	s.notes = map[string]string{}
	return s.commit(ctx, "clear", s.snapshot())
}

// Export returns the portable form of the shortlist
func (s *ShortlistService) Export() models.ShortlistExport {
	items := s.WithMetadata()

	s.mu.RLock()
	var unsaved map[string]string
	for id, note := range s.notes {
		if s.contains(id) {
			continue
		}
		if unsaved == nil {
			unsaved = map[string]string{}
		}
		unsaved[id] = note
	}
	s.mu.RUnlock()

	return models.ShortlistExport{
		Items:      items,
		Notes:      unsaved,
		ExportedAt: s.now(),
		Version:    shortlistExportVersion,
	}
}

// Import validates data and replaces the shortlist with it
func (s *ShortlistService) Import(ctx context.Context, data models.ShortlistExport) error {
	if err := models.Validate(data); err != nil {
		return invalid(err)
	}

	saved := make([]string, 0, len(data.Items))
	createdAt := make(map[string]time.Time, len(data.Items))
	notes := make(map[string]string, len(data.Notes))
	for id, note := range data.Notes {
		notes[id] = note
	}
	for _, item := range data.Items {
		saved = append(saved, item.ApartmentID)
		createdAt[item.ApartmentID] = item.CreatedAt
		if item.Note != "" {
			notes[item.ApartmentID] = item.Note
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saved = saved
	s.createdAt = createdAt
	s.notes = notes
	return s.commit(ctx, "import", s.snapshot())
}

// SavedIDs returns the saved ids in shortlist order
func (s *ShortlistService) SavedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStrings(s.saved)
}

// Apartments resolves the saved ids, skipping ids the lookup does not know
func (s *ShortlistService) Apartments(lookup ApartmentLookup) []models.Apartment {
	ids := s.SavedIDs()
	out := make([]models.Apartment, 0, len(ids))
	for _, id := range ids {
		if apt := lookup.ApartmentByID(id); apt != nil {
			out = append(out, *apt)
		}
	}
	return out
}

// WithMetadata returns every saved item with its date and note
func (s *ShortlistService) WithMetadata() []models.ShortlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.ShortlistItem, 0, len(s.saved))
	for _, id := range s.saved {
		items = append(items, s.item(id))
	}
	return items
}

func (s *ShortlistService) item(id string) models.ShortlistItem {
	created, ok := s.createdAt[id]
	if !ok {
		created = s.now()
	}
	return models.ShortlistItem{ApartmentID: id, CreatedAt: created, Note: s.notes[id]}
}

// Count returns the number of saved apartments
func (s *ShortlistService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.saved)
}

// ByDate resolves the saved apartments, most recently saved first
func (s *ShortlistService) ByDate(lookup ApartmentLookup) []models.Apartment {
	s.mu.RLock()
	items := make([]models.ShortlistItem, 0, len(s.saved))
	for _, id := range s.saved {
		items = append(items, s.item(id))
	}
	s.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	out := make([]models.Apartment, 0, len(items))
	for _, item := range items {
		if apt := lookup.ApartmentByID(item.ApartmentID); apt != nil {
			out = append(out, *apt)
		}
	}
	return out
}

// Sorted resolves the saved apartments in the configured sort order.
// Compatibility order needs scores; with nil scores the shortlist order is kept.
func (s *ShortlistService) Sorted(lookup ApartmentLookup, scores map[string]float64) []models.Apartment {
	s.mu.RLock()
	order := s.sortOrder
	s.mu.RUnlock()

	if order == models.SortRecent {
		return s.ByDate(lookup)
	}

	apartments := s.Apartments(lookup)
	switch order {
	case models.SortPriceLow:
		sort.SliceStable(apartments, func(i, j int) bool {
			return apartments[i].Price.Monthly < apartments[j].Price.Monthly
		})
	case models.SortPriceHigh:
		sort.SliceStable(apartments, func(i, j int) bool {
			return apartments[i].Price.Monthly > apartments[j].Price.Monthly
		})
	case models.SortCompatibility:
		if scores != nil {
			sort.SliceStable(apartments, func(i, j int) bool {
				return scores[apartments[i].ID] > scores[apartments[j].ID]
			})
		}
	}
	return apartments
}

// WithNotes returns only the saved items carrying a note
func (s *ShortlistService) WithNotes() []models.ShortlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []models.ShortlistItem{}
	for _, id := range s.saved {
		if s.notes[id] != "" {
			items = append(items, s.item(id))
		}
	}
	return items
}

// Contains reports whether the apartment is saved
func (s *ShortlistService) Contains(apartmentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contains(apartmentID)
}

// HasNote reports whether the apartment carries a note
func (s *ShortlistService) HasNote(apartmentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes[apartmentID] != ""
}

// Settings returns the sort order and view mode
func (s *ShortlistService) Settings() models.ShortlistSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ShortlistSettings{SortOrder: s.sortOrder, ViewMode: s.viewMode}
}

func isPermutation(candidate, current []string) bool {
	if len(candidate) != len(current) {
		return false
	}
	remaining := make(map[string]int, len(current))
	for _, id := range current {
		remaining[id]++
	}
	for _, id := range candidate {
		if remaining[id] == 0 {
			return false
		}
		remaining[id]--
	}
	return true
}
