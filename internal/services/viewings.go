package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"

	"github.com/google/uuid"
)

const viewingExportVersion = "1.0"

// viewingsSnapshot is the persisted subset of the viewings store
type viewingsSnapshot struct {
	ScheduledViewings []models.Viewing             `json:"scheduled_viewings"`
	BookedSlots       map[string][]models.TimeSlot `json:"booked_slots"`
	Preferences       models.ViewingPreferences    `json:"preferences"`
}

// dayWindow is an opening window in minutes since midnight
type dayWindow struct {
	start, end int
}

// ViewingService holds scheduled viewings, generated slot availability and the business-hours rules.
// Scheduling performs no conflict, business-hours or past-date checks.
type ViewingService struct {
	storeBase

	hours       models.BusinessHours
	weekday     dayWindow
	friday      dayWindow
	slotMinutes int

	mu                sync.RWMutex
	viewings          []models.Viewing
	availableSlots    []models.TimeSlot
	bookedSlots       map[string][]models.TimeSlot
	preferences       models.ViewingPreferences
	selectedDate      *time.Time
	selectedApartment string
}

// NewViewingService creates a viewings store with the given weekly schedule
func NewViewingService(repo SnapshotStore, hours models.BusinessHours, slotMinutes int, opts ...Option) (*ViewingService, error) {
	weekday, err := parseWindow(hours.MondayToThursday)
	if err != nil {
		return nil, fmt.Errorf("invalid monday to thursday hours: %w", err)
	}
	friday, err := parseWindow(hours.Friday)
	if err != nil {
		return nil, fmt.Errorf("invalid friday hours: %w", err)
	}
	if slotMinutes <= 0 {
		slotMinutes = 30
	}

	return &ViewingService{
		storeBase:   newStoreBase(repository.NamespaceViewings, repo, opts),
		hours:       hours,
		weekday:     weekday,
		friday:      friday,
		slotMinutes: slotMinutes,
		viewings:    []models.Viewing{},
		bookedSlots: map[string][]models.TimeSlot{},
		preferences: models.DefaultViewingPreferences(),
	}, nil
}

// Load restores persisted viewings, booked slots and preferences
func (s *ViewingService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := viewingsSnapshot{Preferences: models.DefaultViewingPreferences()}
	if _, err := s.restore(ctx, &snap); err != nil {
		return err
	}

	s.viewings = snap.ScheduledViewings
	s.bookedSlots = snap.BookedSlots
	s.preferences = snap.Preferences
	if s.viewings == nil {
		s.viewings = []models.Viewing{}
	}
	if s.bookedSlots == nil {
		s.bookedSlots = map[string][]models.TimeSlot{}
	}
	return nil
}

func (s *ViewingService) snapshot() viewingsSnapshot {
	return viewingsSnapshot{
		ScheduledViewings: s.viewings,
		BookedSlots:       s.bookedSlots,
		Preferences:       s.preferences,
	}
}

// Schedule creates a scheduled viewing and books the matching slot
func (s *ViewingService) Schedule(ctx context.Context, apartmentID string, dateTime time.Time) (*models.Viewing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	viewing := models.Viewing{
		ID:          uuid.New().String(),
		ApartmentID: apartmentID,
		DateTime:    dateTime,
		Status:      models.ViewingScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.viewings = append(s.viewings, viewing)
	s.bookSlot(apartmentID, slotID(dateTime), dateTime)

	return &viewing, s.commit(ctx, "schedule", s.snapshot())
}

func (s *ViewingService) modify(ctx context.Context, operation, viewingID string, fn func(v *models.Viewing)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.viewings {
		if s.viewings[i].ID == viewingID {
			fn(&s.viewings[i])
			s.viewings[i].UpdatedAt = s.now()
			return s.commit(ctx, operation, s.snapshot())
		}
	}
	return fmt.Errorf("viewing %s: %w", viewingID, ErrNotFound)
}

// Cancel flips a viewing to cancelled; the record is kept
func (s *ViewingService) Cancel(ctx context.Context, viewingID string) error {
	return s.modify(ctx, "cancel", viewingID, func(v *models.Viewing) {
		v.Status = models.ViewingCancelled
	})
}

// Reschedule moves a viewing to a new time
func (s *ViewingService) Reschedule(ctx context.Context, viewingID string, dateTime time.Time) error {
	return s.modify(ctx, "reschedule", viewingID, func(v *models.Viewing) {
		v.DateTime = dateTime
	})
}

// SetStatus moves a viewing to any lifecycle status
func (s *ViewingService) SetStatus(ctx context.Context, viewingID string, status models.ViewingStatus) error {
	switch status {
	case models.ViewingScheduled, models.ViewingConfirmed, models.ViewingCancelled, models.ViewingCompleted:
	default:
		return fmt.Errorf("%w: unknown viewing status %q", ErrInvalidInput, status)
	}
	return s.modify(ctx, "set_status", viewingID, func(v *models.Viewing) {
		v.Status = status
	})
}

// CancelAll flips every viewing to cancelled
func (s *ViewingService) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	viewings := make([]models.Viewing, len(s.viewings))
	for i, v := range s.viewings {
		v.Status = models.ViewingCancelled
		v.UpdatedAt = now
		viewings[i] = v
	}
	s.viewings = viewings
	return s.commit(ctx, "cancel_all", s.snapshot())
}

// LoadAvailableSlots generates the slots of one apartment and day and replaces the
// global slot list with them. Closed days yield no slots. Booked or past slots are unavailable.
func (s *ViewingService) LoadAvailableSlots(ctx context.Context, apartmentID string, date time.Time) ([]models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	slots := []models.TimeSlot{}
	if window, open := s.windowFor(date.Weekday()); open {
		y, m, d := date.Date()
		for minute := window.start; minute+s.slotMinutes <= window.end; minute += s.slotMinutes {
			at := time.Date(y, m, d, minute/60, minute%60, 0, 0, date.Location())
			id := slotID(at)
			booked := s.isBooked(apartmentID, id)
			slots = append(slots, models.TimeSlot{
				ID:          id,
				ApartmentID: apartmentID,
				DateTime:    at,
				Duration:    s.slotMinutes,
				IsAvailable: !booked && at.After(now),
				IsBooked:    booked,
			})
		}
	}

	s.availableSlots = slots
	out := make([]models.TimeSlot, len(slots))
	copy(out, slots)
	return out, s.commit(ctx, "load_available_slots", s.snapshot())
}

// UpdateAvailableSlots replaces the global slot list
func (s *ViewingService) UpdateAvailableSlots(ctx context.Context, slots []models.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.availableSlots = make([]models.TimeSlot, len(slots))
	copy(s.availableSlots, slots)
	return s.commit(ctx, "update_available_slots", s.snapshot())
}

// MarkSlotBooked books a slot id of the form slot_<epoch-ms> for an apartment
func (s *ViewingService) MarkSlotBooked(ctx context.Context, apartmentID, id string) error {
	at, err := parseSlotID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookSlot(apartmentID, id, at)
	return s.commit(ctx, "mark_slot_booked", s.snapshot())
}

// UpdatePreferences merges the non-nil parts of patch
func (s *ViewingService) UpdatePreferences(ctx context.Context, patch models.ViewingPreferencesPatch) error {
	if err := models.Validate(patch); err != nil {
		return invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.SameDayPriority != nil {
		s.preferences.SameDayPriority = *patch.SameDayPriority
	}
	if patch.PreferredTimes != nil {
		s.preferences.PreferredTimes = cloneStrings(patch.PreferredTimes)
	}
	if patch.MaxDistance != nil {
		s.preferences.MaxDistance = *patch.MaxDistance
	}
	return s.commit(ctx, "update_preferences", s.snapshot())
}

// SetSameDayPriority toggles same-day scheduling priority
func (s *ViewingService) SetSameDayPriority(ctx context.Context, enabled bool) error {
	return s.UpdatePreferences(ctx, models.ViewingPreferencesPatch{SameDayPriority: &enabled})
}

// SetSelectedDate records the calendar selection
func (s *ViewingService) SetSelectedDate(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedDate = &date
	return s.commit(ctx, "set_selected_date", s.snapshot())
}

// SetSelectedApartment records the apartment picked in the calendar
func (s *ViewingService) SetSelectedApartment(ctx context.Context, apartmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedApartment = apartmentID
	return s.commit(ctx, "set_selected_apartment", s.snapshot())
}

// Selection returns the calendar selection
func (s *ViewingService) Selection() (*time.Time, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selectedDate == nil {
		return nil, s.selectedApartment
	}
	d := *s.selectedDate
	return &d, s.selectedApartment
}

// ExportSchedule returns the portable form of the schedule
func (s *ViewingService) ExportSchedule() models.ViewingExport {
	return models.ViewingExport{
		Viewings:   s.All(),
		ExportedAt: s.now(),
		Version:    viewingExportVersion,
	}
}

// All returns every viewing including cancelled ones
func (s *ViewingService) All() []models.Viewing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Viewing, len(s.viewings))
	copy(out, s.viewings)
	return out
}

// Preferences returns the scheduling preferences
func (s *ViewingService) Preferences() models.ViewingPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.preferences
	p.PreferredTimes = cloneStrings(p.PreferredTimes)
	return p
}

// BusinessHours returns the weekly schedule
func (s *ViewingService) BusinessHours() models.BusinessHours {
	return s.hours
}

func (s *ViewingService) filter(keep func(v *models.Viewing) bool) []models.Viewing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Viewing{}
	for i := range s.viewings {
		if keep(&s.viewings[i]) {
			out = append(out, s.viewings[i])
		}
	}
	return out
}

// Upcoming returns future scheduled viewings, soonest first
func (s *ViewingService) Upcoming() []models.Viewing {
	now := s.now()
	out := s.filter(func(v *models.Viewing) bool {
		return v.Status == models.ViewingScheduled && v.DateTime.After(now)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.Before(out[j].DateTime)
	})
	return out
}

// Today returns scheduled viewings of the current local day
func (s *ViewingService) Today() []models.Viewing {
	start := startOfDay(s.now())
	end := start.AddDate(0, 0, 1)
	return s.scheduledBetween(start, end)
}

// ForMonth returns scheduled viewings of the month containing month
func (s *ViewingService) ForMonth(month time.Time) []models.Viewing {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	return s.scheduledBetween(start, start.AddDate(0, 1, 0))
}

// ThisWeek counts scheduled viewings of the current week, starting Sunday
func (s *ViewingService) ThisWeek() int {
	today := startOfDay(s.now())
	start := today.AddDate(0, 0, -int(today.Weekday()))
	return len(s.scheduledBetween(start, start.AddDate(0, 0, 7)))
}

func (s *ViewingService) scheduledBetween(start, end time.Time) []models.Viewing {
	return s.filter(func(v *models.Viewing) bool {
		return v.Status == models.ViewingScheduled && !v.DateTime.Before(start) && v.DateTime.Before(end)
	})
}

// ByID returns a viewing, nil when unknown
func (s *ViewingService) ByID(viewingID string) *models.Viewing {
	found := s.filter(func(v *models.Viewing) bool { return v.ID == viewingID })
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

// TotalScheduled counts viewings still in the scheduled status
func (s *ViewingService) TotalScheduled() int {
	return len(s.filter(func(v *models.Viewing) bool { return v.Status == models.ViewingScheduled }))
}

func (s *ViewingService) slots(keep func(slot *models.TimeSlot) bool) []models.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.TimeSlot{}
	for i := range s.availableSlots {
		if keep(&s.availableSlots[i]) {
			out = append(out, s.availableSlots[i])
		}
	}
	return out
}

// AvailableSlotsForDate returns available slots on the calendar day of date
func (s *ViewingService) AvailableSlotsForDate(date time.Time) []models.TimeSlot {
	return s.slots(func(slot *models.TimeSlot) bool {
		return slot.IsAvailable && sameDay(slot.DateTime.In(date.Location()), date)
	})
}

// AvailableSlotsForApartment returns available slots of one apartment
func (s *ViewingService) AvailableSlotsForApartment(apartmentID string) []models.TimeSlot {
	return s.slots(func(slot *models.TimeSlot) bool {
		return slot.IsAvailable && slot.ApartmentID == apartmentID
	})
}

// NextAvailableSlot returns the first available slot of an apartment, nil when none
func (s *ViewingService) NextAvailableSlot(apartmentID string) *models.TimeSlot {
	slots := s.AvailableSlotsForApartment(apartmentID)
	if len(slots) == 0 {
		return nil
	}
	return &slots[0]
}

// AvailableDates returns the distinct days holding available slots of an apartment
func (s *ViewingService) AvailableDates(apartmentID string) []time.Time {
	var times []time.Time
	for _, slot := range s.AvailableSlotsForApartment(apartmentID) {
		times = append(times, slot.DateTime)
	}
	return distinctDays(times)
}

// BookedDates returns the distinct days holding booked slots of any apartment
func (s *ViewingService) BookedDates() []time.Time {
	s.mu.RLock()
	var times []time.Time
	for _, slots := range s.bookedSlots {
		for _, slot := range slots {
			if slot.IsBooked {
				times = append(times, slot.DateTime)
			}
		}
	}
	s.mu.RUnlock()
	return distinctDays(times)
}

// IsBusinessHour reports whether t falls inside the weekly schedule.
// Weekend days follow the weekend switch alone; weekday windows include their end minute.
func (s *ViewingService) IsBusinessHour(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return s.hours.Weekend
	}
	window, _ := s.windowFor(t.Weekday())
	minute := t.Hour()*60 + t.Minute()
	return minute >= window.start && minute <= window.end
}

// NextBusinessDay returns the first day after from that is open
func (s *ViewingService) NextBusinessDay(from time.Time) time.Time {
	date := from
	for {
		date = date.AddDate(0, 0, 1)
		switch date.Weekday() {
		case time.Saturday, time.Sunday:
			if s.hours.Weekend {
				return date
			}
		default:
			return date
		}
	}
}

// windowFor returns the opening window of a weekday. Open weekends use the Monday-Thursday window.
func (s *ViewingService) windowFor(day time.Weekday) (dayWindow, bool) {
	switch day {
	case time.Friday:
		return s.friday, true
	case time.Saturday, time.Sunday:
		return s.weekday, s.hours.Weekend
	default:
		return s.weekday, true
	}
}

func (s *ViewingService) isBooked(apartmentID, id string) bool {
	for _, slot := range s.bookedSlots[apartmentID] {
		if slot.ID == id && slot.IsBooked {
			return true
		}
	}
	return false
}

func (s *ViewingService) bookSlot(apartmentID, id string, at time.Time) {
	booked := make(map[string][]models.TimeSlot, len(s.bookedSlots)+1)
	for k, v := range s.bookedSlots {
		booked[k] = v
	}
	list := make([]models.TimeSlot, len(booked[apartmentID]), len(booked[apartmentID])+1)
	copy(list, booked[apartmentID])
	booked[apartmentID] = append(list, models.TimeSlot{
		ID:          id,
		ApartmentID: apartmentID,
		DateTime:    at,
		Duration:    s.slotMinutes,
		IsAvailable: false,
		IsBooked:    true,
	})
	s.bookedSlots = booked
}

func slotID(at time.Time) string {
	return fmt.Sprintf("slot_%d", at.UnixMilli())
}

func parseSlotID(id string) (time.Time, error) {
	raw, ok := strings.CutPrefix(id, "slot_")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: malformed slot id %q", ErrInvalidInput, id)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed slot id %q", ErrInvalidInput, id)
	}
	return time.UnixMilli(ms), nil
}

func parseWindow(h models.OpeningHours) (dayWindow, error) {
	start, err := parseClock(h.Start)
	if err != nil {
		return dayWindow{}, err
	}
	end, err := parseClock(h.End)
	if err != nil {
		return dayWindow{}, err
	}
	if end < start {
		return dayWindow{}, fmt.Errorf("end %s before start %s", h.End, h.Start)
	}
	return dayWindow{start: start, end: end}, nil
}

// parseClock converts "HH:MM" to minutes since midnight
func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse time of day %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type calendarDay struct {
	year  int
	month time.Month
	day   int
}

// distinctDays keys on the calendar date since equal instants may carry distinct *Location values
func distinctDays(times []time.Time) []time.Time {
	seen := map[calendarDay]struct{}{}
	out := []time.Time{}
	for _, t := range times {
		y, m, d := t.Date()
		key := calendarDay{year: y, month: m, day: d}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, startOfDay(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
