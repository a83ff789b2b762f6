package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"renthunt-state/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	// Sunday before the test week
	viewingsNow = time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	tuesday     = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	friday      = time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	saturday    = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
)

func newTestViewingService(t *testing.T, repo SnapshotStore, hours models.BusinessHours) (*ViewingService, *testClock) {
	t.Helper()
	clock := newTestClock(viewingsNow)
	svc, err := NewViewingService(repo, hours, 30, WithClock(clock.Now))
	require.NoError(t, err)
	return svc, clock
}

func onDay(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func TestViewingService_FridaySlotsEndBeforeFive(t *testing.T) {
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	slots, err := svc.LoadAvailableSlots(context.Background(), "a1", friday)
	require.NoError(t, err)
	require.Len(t, slots, 14)

	for _, slot := range slots {
		assert.Less(t, slot.DateTime.Hour(), 17, slot.ID)
		assert.True(t, slot.IsAvailable)
		assert.Equal(t, "a1", slot.ApartmentID)
	}
	assert.Equal(t, onDay(friday, 10, 0), slots[0].DateTime)
	assert.Equal(t, onDay(friday, 16, 30), slots[len(slots)-1].DateTime)
}

func TestViewingService_TuesdaySlotsEndBeforeSeven(t *testing.T) {
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	slots, err := svc.LoadAvailableSlots(context.Background(), "a1", tuesday)
	require.NoError(t, err)
	require.Len(t, slots, 18)

	for _, slot := range slots {
		assert.Less(t, slot.DateTime.Hour(), 19, slot.ID)
	}
	assert.Equal(t, onDay(tuesday, 18, 30), slots[len(slots)-1].DateTime)
	assert.Equal(t, slotID(onDay(tuesday, 10, 0)), slots[0].ID)
}

func TestViewingService_WeekendSlots(t *testing.T) {
	ctx := context.Background()

	closed, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())
	slots, err := closed.LoadAvailableSlots(ctx, "a1", saturday)
	require.NoError(t, err)
	assert.Empty(t, slots)

	hours := models.DefaultBusinessHours()
	hours.Weekend = true
	open, _ := newTestViewingService(t, newTestRepo(t), hours)
	slots, err = open.LoadAvailableSlots(ctx, "a1", saturday)
	require.NoError(t, err)
	assert.Len(t, slots, 18)
}

func TestViewingService_BookedAndPastSlotsUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	_, err := svc.Schedule(ctx, "a1", onDay(tuesday, 15, 0))
	require.NoError(t, err)

	clock.Set(onDay(tuesday, 12, 0))
	slots, err := svc.LoadAvailableSlots(ctx, "a1", tuesday)
	require.NoError(t, err)

	byTime := map[time.Time]models.TimeSlot{}
	for _, slot := range slots {
		byTime[slot.DateTime] = slot
	}
	assert.False(t, byTime[onDay(tuesday, 11, 30)].IsAvailable)
	assert.False(t, byTime[onDay(tuesday, 12, 0)].IsAvailable)
	assert.True(t, byTime[onDay(tuesday, 12, 30)].IsAvailable)
	assert.True(t, byTime[onDay(tuesday, 15, 0)].IsBooked)
	assert.False(t, byTime[onDay(tuesday, 15, 0)].IsAvailable)

	// booking is per apartment
	other, err := svc.LoadAvailableSlots(ctx, "a2", tuesday)
	require.NoError(t, err)
	for _, slot := range other {
		assert.False(t, slot.IsBooked)
	}
}

func TestViewingService_SlotQueries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	_, err := svc.LoadAvailableSlots(ctx, "a1", friday)
	require.NoError(t, err)

	assert.Len(t, svc.AvailableSlotsForDate(friday), 14)
	assert.Empty(t, svc.AvailableSlotsForDate(tuesday))
	assert.Len(t, svc.AvailableSlotsForApartment("a1"), 14)
	assert.Empty(t, svc.AvailableSlotsForApartment("a2"))

	next := svc.NextAvailableSlot("a1")
	require.NotNil(t, next)
	assert.Equal(t, onDay(friday, 10, 0), next.DateTime)
	assert.Nil(t, svc.NextAvailableSlot("a2"))

	assert.Equal(t, []time.Time{friday}, svc.AvailableDates("a1"))

	// loading another day replaces the slot list
	_, err = svc.LoadAvailableSlots(ctx, "a2", tuesday)
	require.NoError(t, err)
	assert.Empty(t, svc.AvailableSlotsForApartment("a1"))
}

func TestViewingService_ScheduleAndLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	v1, err := svc.Schedule(ctx, "a1", onDay(tuesday, 11, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, v1.ID)
	assert.Equal(t, models.ViewingScheduled, v1.Status)
	assert.Equal(t, viewingsNow, v1.CreatedAt)

	v2, err := svc.Schedule(ctx, "a2", onDay(tuesday, 10, 0))
	require.NoError(t, err)

	upcoming := svc.Upcoming()
	require.Len(t, upcoming, 2)
	assert.Equal(t, v2.ID, upcoming[0].ID)
	assert.Equal(t, 2, svc.TotalScheduled())
	assert.Equal(t, 2, svc.ThisWeek())

	clock.Advance(time.Hour)
	require.NoError(t, svc.Reschedule(ctx, v1.ID, onDay(friday, 14, 0)))
	moved := svc.ByID(v1.ID)
	require.NotNil(t, moved)
	assert.Equal(t, onDay(friday, 14, 0), moved.DateTime)
	assert.Equal(t, viewingsNow.Add(time.Hour), moved.UpdatedAt)

	require.NoError(t, svc.Cancel(ctx, v2.ID))
	assert.Equal(t, models.ViewingCancelled, svc.ByID(v2.ID).Status)
	assert.Len(t, svc.All(), 2)
	assert.Equal(t, 1, svc.TotalScheduled())

	require.NoError(t, svc.SetStatus(ctx, v1.ID, models.ViewingConfirmed))
	assert.Empty(t, svc.Upcoming())

	assert.ErrorIs(t, svc.Cancel(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.SetStatus(ctx, v1.ID, "lost"), ErrInvalidInput)
	assert.Nil(t, svc.ByID("missing"))

	require.NoError(t, svc.CancelAll(ctx))
	for _, v := range svc.All() {
		assert.Equal(t, models.ViewingCancelled, v.Status)
	}
}

func TestViewingService_TodayAndMonth(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	_, err := svc.Schedule(ctx, "a1", onDay(tuesday, 11, 0))
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, "a2", time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, "a3", time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Empty(t, svc.Today())
	clock.Set(onDay(tuesday, 8, 0))
	today := svc.Today()
	require.Len(t, today, 1)
	assert.Equal(t, "a1", today[0].ApartmentID)

	assert.Len(t, svc.ForMonth(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)), 2)
	assert.Len(t, svc.ForMonth(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)), 1)

	booked := svc.BookedDates()
	assert.Equal(t, []time.Time{
		tuesday,
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}, booked)
}

func TestViewingService_BookedDatesMergesParsedOffsets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	for _, raw := range []string{`"2030-10-22T10:00:00+05:30"`, `"2030-10-22T11:00:00+05:30"`} {
		var at time.Time
		require.NoError(t, json.Unmarshal([]byte(raw), &at))
		_, err := svc.Schedule(ctx, "a1", at)
		require.NoError(t, err)
	}

	booked := svc.BookedDates()
	require.Len(t, booked, 1)
	y, m, d := booked[0].Date()
	assert.Equal(t, []int{2030, 10, 22}, []int{y, int(m), d})
}

func TestViewingService_MarkSlotBooked(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	assert.ErrorIs(t, svc.MarkSlotBooked(ctx, "a1", "slot_soon"), ErrInvalidInput)
	assert.ErrorIs(t, svc.MarkSlotBooked(ctx, "a1", "12345"), ErrInvalidInput)

	id := slotID(onDay(friday, 13, 0))
	require.NoError(t, svc.MarkSlotBooked(ctx, "a1", id))

	slots, err := svc.LoadAvailableSlots(ctx, "a1", friday)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.Equal(t, slot.ID == id, slot.IsBooked, slot.ID)
	}
}

func TestViewingService_BusinessHours(t *testing.T) {
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	assert.True(t, svc.IsBusinessHour(onDay(tuesday, 10, 0)))
	assert.True(t, svc.IsBusinessHour(onDay(tuesday, 19, 0)))
	assert.False(t, svc.IsBusinessHour(onDay(tuesday, 9, 59)))
	assert.True(t, svc.IsBusinessHour(onDay(friday, 17, 0)))
	assert.False(t, svc.IsBusinessHour(onDay(friday, 17, 1)))
	assert.False(t, svc.IsBusinessHour(onDay(saturday, 12, 0)))

	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, svc.NextBusinessDay(friday))
	assert.Equal(t, onDay(tuesday, 0, 0).AddDate(0, 0, 1), svc.NextBusinessDay(tuesday))

	hours := models.DefaultBusinessHours()
	hours.Weekend = true
	open, _ := newTestViewingService(t, newTestRepo(t), hours)
	assert.True(t, open.IsBusinessHour(onDay(saturday, 3, 0)))
	assert.Equal(t, saturday, open.NextBusinessDay(friday))
}

func TestNewViewingService_RejectsBadHours(t *testing.T) {
	hours := models.DefaultBusinessHours()
	hours.Friday.End = "5pm"
	_, err := NewViewingService(newTestRepo(t), hours, 30)
	assert.Error(t, err)

	hours = models.DefaultBusinessHours()
	hours.MondayToThursday = models.OpeningHours{Start: "19:00", End: "10:00"}
	_, err = NewViewingService(newTestRepo(t), hours, 30)
	assert.Error(t, err)
}

func TestViewingService_Preferences(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestViewingService(t, newTestRepo(t), models.DefaultBusinessHours())

	assert.Equal(t, models.DefaultViewingPreferences(), svc.Preferences())

	require.NoError(t, svc.SetSameDayPriority(ctx, false))
	distance := 5.0
	require.NoError(t, svc.UpdatePreferences(ctx, models.ViewingPreferencesPatch{
		PreferredTimes: []string{"evening"},
		MaxDistance:    &distance,
	}))

	prefs := svc.Preferences()
	assert.False(t, prefs.SameDayPriority)
	assert.Equal(t, []string{"evening"}, prefs.PreferredTimes)
	assert.Equal(t, 5.0, prefs.MaxDistance)

	err := svc.UpdatePreferences(ctx, models.ViewingPreferencesPatch{PreferredTimes: []string{"midnight"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestViewingService_RestoreFromSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, _ := newTestViewingService(t, repo, models.DefaultBusinessHours())
	v, err := first.Schedule(ctx, "a1", onDay(tuesday, 11, 0))
	require.NoError(t, err)
	_, err = first.LoadAvailableSlots(ctx, "a1", tuesday)
	require.NoError(t, err)
	require.NoError(t, first.SetSelectedApartment(ctx, "a1"))

	second, _ := newTestViewingService(t, repo, models.DefaultBusinessHours())
	require.NoError(t, second.Load(ctx))

	require.NotNil(t, second.ByID(v.ID))
	assert.Equal(t, []time.Time{tuesday}, second.BookedDates())
	assert.Empty(t, second.AvailableSlotsForApartment("a1"))
	_, selected := second.Selection()
	assert.Empty(t, selected)

	export := second.ExportSchedule()
	assert.Equal(t, "1.0", export.Version)
	assert.Len(t, export.Viewings, 1)
}
