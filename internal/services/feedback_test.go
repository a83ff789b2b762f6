package services

import (
	"context"
	"testing"
	"time"

	"renthunt-state/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feedbackNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestFeedbackService(t *testing.T, repo SnapshotStore) (*FeedbackService, *testClock) {
	t.Helper()
	clock := newTestClock(feedbackNow)
	return NewFeedbackService(repo, 24*time.Hour, WithClock(clock.Now)), clock
}

func personalAnswers(overall int) models.PersonalFeedback {
	return models.PersonalFeedback{
		OverallRating:     overall,
		CleanlinessRating: 4,
		LocationRating:    5,
		ValueRating:       3,
		AmenitiesRating:   4,
		Comments:          "bright living room",
	}
}

func fairnessAnswers(rating int) models.FairnessFeedback {
	return models.FairnessFeedback{
		AdvertisedAccuracyRating: rating,
		PriceFairnessRating:      rating,
		ResponsivenessRating:     rating,
		ProfessionalismRating:    rating,
		WouldRecommend:           true,
	}
}

// submitFlow runs the whole wizard for a viewing
func submitFlow(t *testing.T, svc *FeedbackService, viewingID string, personal models.PersonalFeedback, fairness models.FairnessFeedback) *models.Feedback {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.Start(ctx, viewingID))
	require.NoError(t, svc.SubmitPersonal(ctx, viewingID, personal))
	fb, err := svc.SubmitFairness(ctx, viewingID, fairness)
	require.NoError(t, err)
	return fb
}

func TestFeedbackService_OverdueAfterDueDate(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestFeedbackService(t, newTestRepo(t))

	item, err := svc.AddPending(ctx, "v1", "a1")
	require.NoError(t, err)
	assert.Equal(t, feedbackNow.Add(24*time.Hour), item.DueDate)

	clock.Set(feedbackNow.Add(23 * time.Hour))
	assert.Empty(t, svc.Overdue())

	clock.Set(feedbackNow.Add(25 * time.Hour))
	overdue := svc.Overdue()
	require.Len(t, overdue, 1)
	assert.Equal(t, "v1", overdue[0].ViewingID)
}

func TestFeedbackService_WizardKeepsPersonalAnswers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc, _ := newTestFeedbackService(t, repo)

	_, err := svc.AddPending(ctx, "v1", "a1")
	require.NoError(t, err)
	require.NoError(t, svc.Start(ctx, "v1"))
	require.NoError(t, svc.SubmitPersonal(ctx, "v1", personalAnswers(5)))
	assert.Equal(t, models.StepFairness, svc.Current().Step)

	// the personal step survives a restart
	restarted, _ := newTestFeedbackService(t, repo)
	require.NoError(t, restarted.Load(ctx))
	current := restarted.Current()
	require.NotNil(t, current.Personal)
	assert.Equal(t, personalAnswers(5), *current.Personal)

	fb, err := restarted.SubmitFairness(ctx, "v1", fairnessAnswers(4))
	require.NoError(t, err)
	assert.NotEmpty(t, fb.ID)
	assert.Equal(t, "a1", fb.ApartmentID)
	assert.Equal(t, personalAnswers(5), fb.Personal)
	assert.Equal(t, fairnessAnswers(4), fb.Fairness)
	assert.Equal(t, feedbackNow, fb.SubmittedAt)
	// (5 + 4*4) / 5 = 4.2
	assert.Equal(t, 4, fb.OverallSatisfaction)

	assert.False(t, restarted.HasPending())
	assert.True(t, restarted.HasSubmitted())
	assert.Equal(t, models.StepComplete, restarted.Current().Step)
	assert.Equal(t, fb, restarted.ForViewing("v1"))
}

func TestFeedbackService_WizardErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestFeedbackService(t, newTestRepo(t))

	err := svc.SubmitPersonal(ctx, "v1", personalAnswers(4))
	assert.ErrorIs(t, err, ErrNoActiveFeedback)

	require.NoError(t, svc.Start(ctx, "v1"))
	_, err = svc.SubmitFairness(ctx, "v1", fairnessAnswers(4))
	assert.ErrorIs(t, err, ErrPersonalFeedbackMissing)

	_, err = svc.SubmitFairness(ctx, "v2", fairnessAnswers(4))
	assert.ErrorIs(t, err, ErrNoActiveFeedback)

	err = svc.SubmitPersonal(ctx, "v1", personalAnswers(6))
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, svc.SetStep(ctx, "review"), ErrInvalidInput)
	assert.False(t, svc.HasSubmitted())
}

func TestFeedbackService_StartDiscardsFlowInProgress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestFeedbackService(t, newTestRepo(t))

	require.NoError(t, svc.Start(ctx, "v1"))
	require.NoError(t, svc.SubmitPersonal(ctx, "v1", personalAnswers(4)))
	require.NoError(t, svc.Start(ctx, "v2"))

	current := svc.Current()
	assert.Equal(t, "v2", current.ViewingID)
	assert.Equal(t, models.StepPersonal, current.Step)
	assert.Nil(t, current.Personal)

	require.NoError(t, svc.ClearCurrent(ctx))
	assert.Empty(t, svc.Current().ViewingID)
	assert.Nil(t, svc.CurrentForm())
}

func TestFeedbackService_StatsAndCompletionRate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestFeedbackService(t, newTestRepo(t))

	assert.Equal(t, models.FeedbackStats{}, svc.Stats())

	for _, id := range []string{"v1", "v2", "v3"} {
		_, err := svc.AddPending(ctx, id, "a-"+id)
		require.NoError(t, err)
	}
	assert.Zero(t, svc.CompletionRate())

	submitFlow(t, svc, "v1", personalAnswers(5), fairnessAnswers(4))
	submitFlow(t, svc, "v2", personalAnswers(4), fairnessAnswers(2))

	stats := svc.Stats()
	assert.Equal(t, 2, stats.TotalSubmitted)
	assert.Equal(t, 4.5, stats.AveragePersonalRating)
	assert.Equal(t, 3.0, stats.AverageFairnessRating)
	// 2 of 3
	assert.Equal(t, 67, stats.CompletionRate)
	assert.Equal(t, models.AverageRatings{Personal: 4.5, Fairness: 3.0}, svc.AverageRatings())

	next := svc.NextPending()
	require.NotNil(t, next)
	assert.Equal(t, "v3", next.ViewingID)
	assert.Len(t, svc.ForApartment("a-v1"), 1)
	assert.Empty(t, svc.ForApartment("a-v3"))
}

func TestFeedbackService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestFeedbackService(t, newTestRepo(t))

	fb := submitFlow(t, svc, "v1", personalAnswers(2), fairnessAnswers(2))
	assert.Equal(t, 2, fb.OverallSatisfaction)

	fairness := fairnessAnswers(5)
	require.NoError(t, svc.Update(ctx, fb.ID, models.FeedbackPatch{Fairness: &fairness}))
	updated := svc.ForViewing("v1")
	require.NotNil(t, updated)
	assert.Equal(t, fairness, updated.Fairness)
	assert.Equal(t, personalAnswers(2), updated.Personal)
	// (2 + 5*4) / 5 = 4.4
	assert.Equal(t, 4, updated.OverallSatisfaction)
	assert.Equal(t, 5.0, svc.Stats().AverageFairnessRating)

	bad := personalAnswers(0)
	assert.ErrorIs(t, svc.Update(ctx, fb.ID, models.FeedbackPatch{Personal: &bad}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Update(ctx, "missing", models.FeedbackPatch{Fairness: &fairness}), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, fb.ID))
	assert.False(t, svc.HasSubmitted())
	assert.Equal(t, models.FeedbackStats{}, svc.Stats())
	assert.ErrorIs(t, svc.Delete(ctx, fb.ID), ErrNotFound)
}

func TestFeedbackService_ClearOld(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestFeedbackService(t, newTestRepo(t))

	submitFlow(t, svc, "v1", personalAnswers(3), fairnessAnswers(3))
	clock.Advance(48 * time.Hour)
	submitFlow(t, svc, "v2", personalAnswers(3), fairnessAnswers(3))

	removed, err := svc.ClearOld(ctx, feedbackNow.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	all := svc.All()
	require.Len(t, all, 1)
	assert.Equal(t, "v2", all[0].ViewingID)

	export := svc.ExportHistory()
	assert.Equal(t, "1.0", export.Version)
	assert.Len(t, export.Feedback, 1)
}

func TestFeedbackService_DeadlinesAndDueToday(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestFeedbackService(t, newTestRepo(t))

	_, err := svc.AddPending(ctx, "v1", "a1")
	require.NoError(t, err)
	_, err = svc.AddPending(ctx, "v2", "a2")
	require.NoError(t, err)

	assert.Empty(t, svc.DueToday())

	require.NoError(t, svc.ExtendDeadline(ctx, "v2", feedbackNow.Add(3*time.Hour)))
	today := svc.DueToday()
	require.Len(t, today, 1)
	assert.Equal(t, "v2", today[0].ViewingID)

	clock.Advance(4 * time.Hour)
	assert.Len(t, svc.Overdue(), 1)

	assert.ErrorIs(t, svc.ExtendDeadline(ctx, "v9", feedbackNow), ErrNotFound)

	require.NoError(t, svc.RemovePending(ctx, "v1"))
	pending := svc.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "v2", pending[0].ViewingID)
}

func TestFeedbackService_SubmitWithoutPendingItem(t *testing.T) {
	svc, _ := newTestFeedbackService(t, newTestRepo(t))

	fb := submitFlow(t, svc, "v1", personalAnswers(4), fairnessAnswers(4))
	assert.Empty(t, fb.ApartmentID)
	assert.Equal(t, 100, svc.CompletionRate())
}

func TestOverallSatisfaction(t *testing.T) {
	tests := []struct {
		name     string
		overall  int
		fairness models.FairnessFeedback
		want     int
	}{
		{
			name:     "rounds down",
			overall:  3,
			fairness: models.FairnessFeedback{AdvertisedAccuracyRating: 3, PriceFairnessRating: 3, ResponsivenessRating: 2, ProfessionalismRating: 1},
			want:     2,
		},
		{
			name:     "rounds up",
			overall:  5,
			fairness: models.FairnessFeedback{AdvertisedAccuracyRating: 5, PriceFairnessRating: 5, ResponsivenessRating: 5, ProfessionalismRating: 3},
			want:     5,
		},
		{
			name:     "exact",
			overall:  5,
			fairness: models.FairnessFeedback{AdvertisedAccuracyRating: 5, PriceFairnessRating: 5, ResponsivenessRating: 3, ProfessionalismRating: 2},
			want:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overallSatisfaction(personalAnswers(tt.overall), tt.fairness))
		})
	}
}
