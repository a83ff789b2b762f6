package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"

	"github.com/google/uuid"
)

const feedbackExportVersion = "1.0"

// feedbackSnapshot is the persisted subset of the feedback store.
// The wizard is persisted so answers from the personal step survive a restart.
type feedbackSnapshot struct {
	SubmittedFeedback []models.Feedback            `json:"submitted_feedback"`
	PendingFeedback   []models.PendingFeedbackItem `json:"pending_feedback"`
	Stats             models.FeedbackStats         `json:"stats"`
	CurrentFeedback   models.CurrentFeedback       `json:"current_feedback"`
}

// FeedbackService holds submitted feedback, the pending queue and the two-step wizard
type FeedbackService struct {
	storeBase

	dueAfter time.Duration

	mu        sync.RWMutex
	submitted []models.Feedback
	pending   []models.PendingFeedbackItem
	stats     models.FeedbackStats
	current   models.CurrentFeedback
}

// NewFeedbackService creates an empty feedback store. Pending items fall due dueAfter after creation.
func NewFeedbackService(repo SnapshotStore, dueAfter time.Duration, opts ...Option) *FeedbackService {
	if dueAfter <= 0 {
		dueAfter = 24 * time.Hour
	}
	return &FeedbackService{
		storeBase: newStoreBase(repository.NamespaceFeedback, repo, opts),
		dueAfter:  dueAfter,
		submitted: []models.Feedback{},
		pending:   []models.PendingFeedbackItem{},
		current:   models.CurrentFeedback{Step: models.StepPersonal},
	}
}

// Load restores the persisted feedback state
func (s *FeedbackService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := feedbackSnapshot{CurrentFeedback: models.CurrentFeedback{Step: models.StepPersonal}}
	if _, err := s.restore(ctx, &snap); err != nil {
		return err
	}

	s.submitted = snap.SubmittedFeedback
	s.pending = snap.PendingFeedback
	s.stats = snap.Stats
	s.current = snap.CurrentFeedback
	if s.submitted == nil {
		s.submitted = []models.Feedback{}
	}
	if s.pending == nil {
		s.pending = []models.PendingFeedbackItem{}
	}
	return nil
}

func (s *FeedbackService) snapshot() feedbackSnapshot {
	return feedbackSnapshot{
		SubmittedFeedback: s.submitted,
		PendingFeedback:   s.pending,
		Stats:             s.stats,
		CurrentFeedback:   s.current,
	}
}

// save refreshes the statistics and commits. Callers hold mu.
func (s *FeedbackService) save(ctx context.Context, operation string) error {
	s.stats = computeStats(s.submitted, s.pending)
	return s.commit(ctx, operation, s.snapshot())
}

// Start opens the wizard for a viewing, discarding any flow in progress
func (s *FeedbackService) Start(ctx context.Context, viewingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.CurrentFeedback{ViewingID: viewingID, Step: models.StepPersonal}
	return s.save(ctx, "start")
}

// SubmitPersonal keeps the personal answers in the wizard and advances to the fairness step
func (s *FeedbackService) SubmitPersonal(ctx context.Context, viewingID string, personal models.PersonalFeedback) error {
	if err := models.Validate(personal); err != nil {
		return invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.ViewingID == "" || s.current.ViewingID != viewingID {
		return fmt.Errorf("viewing %s: %w", viewingID, ErrNoActiveFeedback)
	}
	p := personal
	s.current.Personal = &p
	s.current.Step = models.StepFairness
	return s.save(ctx, "submit_personal")
}

// SubmitFairness finalizes the feedback record with the answers kept from the personal step.
// The pending item of the viewing is removed and the wizard moves to complete.
func (s *FeedbackService) SubmitFairness(ctx context.Context, viewingID string, fairness models.FairnessFeedback) (*models.Feedback, error) {
	if err := models.Validate(fairness); err != nil {
		return nil, invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.ViewingID == "" || s.current.ViewingID != viewingID {
		return nil, fmt.Errorf("viewing %s: %w", viewingID, ErrNoActiveFeedback)
	}
	if s.current.Personal == nil {
		return nil, fmt.Errorf("viewing %s: %w", viewingID, ErrPersonalFeedbackMissing)
	}

	apartmentID := ""
	for _, p := range s.pending {
		if p.ViewingID == viewingID {
			apartmentID = p.ApartmentID
			break
		}
	}

	fb := models.Feedback{
		ID:                  uuid.New().String(),
		ViewingID:           viewingID,
		ApartmentID:         apartmentID,
		SubmittedAt:         s.now(),
		Personal:            *s.current.Personal,
		Fairness:            fairness,
		OverallSatisfaction: overallSatisfaction(*s.current.Personal, fairness),
	}

	submitted := make([]models.Feedback, len(s.submitted), len(s.submitted)+1)
	copy(submitted, s.submitted)
	s.submitted = append(submitted, fb)
	s.pending = withoutPending(s.pending, viewingID)
	s.current = models.CurrentFeedback{Step: models.StepComplete}

	return &fb, s.save(ctx, "submit_fairness")
}

// Complete closes the wizard without recording anything
func (s *FeedbackService) Complete(ctx context.Context, viewingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.CurrentFeedback{Step: models.StepComplete}
	return s.save(ctx, "complete")
}

// SetStep moves the wizard to a step, keeping its viewing and answers
func (s *FeedbackService) SetStep(ctx context.Context, step models.FeedbackStep) error {
	switch step {
	case models.StepPersonal, models.StepFairness, models.StepComplete:
	default:
		return fmt.Errorf("%w: unknown feedback step %q", ErrInvalidInput, step)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Step = step
	return s.save(ctx, "set_step")
}

// ClearCurrent resets the wizard to an idle personal step
func (s *FeedbackService) ClearCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.CurrentFeedback{Step: models.StepPersonal}
	return s.save(ctx, "clear_current")
}

// AddPending queues a feedback request due after the configured delay
func (s *FeedbackService) AddPending(ctx context.Context, viewingID, apartmentID string) (models.PendingFeedbackItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := models.PendingFeedbackItem{
		ViewingID:   viewingID,
		ApartmentID: apartmentID,
		DueDate:     s.now().Add(s.dueAfter),
	}
	pending := make([]models.PendingFeedbackItem, len(s.pending), len(s.pending)+1)
	copy(pending, s.pending)
	s.pending = append(pending, item)
	return item, s.save(ctx, "add_pending")
}

// RemovePending drops the pending requests of a viewing
func (s *FeedbackService) RemovePending(ctx context.Context, viewingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = withoutPending(s.pending, viewingID)
	return s.save(ctx, "remove_pending")
}

// ExtendDeadline moves the due date of the pending requests of a viewing
func (s *FeedbackService) ExtendDeadline(ctx context.Context, viewingID string, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	pending := make([]models.PendingFeedbackItem, len(s.pending))
	for i, p := range s.pending {
		if p.ViewingID == viewingID {
			p.DueDate = due
			found = true
		}
		pending[i] = p
	}
	if !found {
		return fmt.Errorf("pending feedback for viewing %s: %w", viewingID, ErrNotFound)
	}
	s.pending = pending
	return s.save(ctx, "extend_deadline")
}

// Update replaces the personal or fairness answers of a submitted record and recomputes its satisfaction
func (s *FeedbackService) Update(ctx context.Context, feedbackID string, patch models.FeedbackPatch) error {
	if err := models.Validate(patch); err != nil {
		return invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.submitted {
		if s.submitted[i].ID != feedbackID {
			continue
		}
		submitted := make([]models.Feedback, len(s.submitted))
		copy(submitted, s.submitted)
		fb := &submitted[i]
		if patch.Personal != nil {
			fb.Personal = *patch.Personal
		}
		if patch.Fairness != nil {
			fb.Fairness = *patch.Fairness
		}
		fb.OverallSatisfaction = overallSatisfaction(fb.Personal, fb.Fairness)
		s.submitted = submitted
		return s.save(ctx, "update")
	}
	return fmt.Errorf("feedback %s: %w", feedbackID, ErrNotFound)
}

// Delete removes a submitted record
func (s *FeedbackService) Delete(ctx context.Context, feedbackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Feedback, 0, len(s.submitted))
	for _, f := range s.submitted {
		if f.ID != feedbackID {
			out = append(out, f)
		}
	}
	if len(out) == len(s.submitted) {
		return fmt.Errorf("feedback %s: %w", feedbackID, ErrNotFound)
	}
	s.submitted = out
	return s.save(ctx, "delete")
}

// ClearOld removes records submitted before olderThan. It returns how many were removed.
func (s *FeedbackService) ClearOld(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Feedback, 0, len(s.submitted))
	for _, f := range s.submitted {
		if !f.SubmittedAt.Before(olderThan) {
			out = append(out, f)
		}
	}
	removed := len(s.submitted) - len(out)
	s.submitted = out
	return removed, s.save(ctx, "clear_old")
}

// UpdateStats recomputes the statistics. Every mutation already does this.
func (s *FeedbackService) UpdateStats(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, "update_stats")
}

// ExportHistory returns the portable form of the submitted feedback
func (s *FeedbackService) ExportHistory() models.FeedbackExport {
	return models.FeedbackExport{
		Feedback:   s.All(),
		ExportedAt: s.now(),
		Version:    feedbackExportVersion,
	}
}

// All returns every submitted record in submission order
func (s *FeedbackService) All() []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Feedback, len(s.submitted))
	copy(out, s.submitted)
	return out
}

// ForApartment returns the records of one apartment
func (s *FeedbackService) ForApartment(apartmentID string) []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Feedback{}
	for _, f := range s.submitted {
		if f.ApartmentID == apartmentID {
			out = append(out, f)
		}
	}
	return out
}

// ForViewing returns the record of a viewing, nil when none was submitted
func (s *FeedbackService) ForViewing(viewingID string) *models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forViewing(viewingID)
}

func (s *FeedbackService) forViewing(viewingID string) *models.Feedback {
	for _, f := range s.submitted {
		if f.ViewingID == viewingID {
			fb := f
			return &fb
		}
	}
	return nil
}

// Pending returns the queued requests in creation order
func (s *FeedbackService) Pending() []models.PendingFeedbackItem {
	return s.pendingWhere(func(models.PendingFeedbackItem) bool { return true })
}

// Overdue returns the requests whose due date has passed
func (s *FeedbackService) Overdue() []models.PendingFeedbackItem {
	now := s.now()
	return s.pendingWhere(func(p models.PendingFeedbackItem) bool {
		return p.DueDate.Before(now)
	})
}

// DueToday returns the requests falling due during the current local day
func (s *FeedbackService) DueToday() []models.PendingFeedbackItem {
	start := startOfDay(s.now())
	end := start.AddDate(0, 0, 1)
	return s.pendingWhere(func(p models.PendingFeedbackItem) bool {
		return !p.DueDate.Before(start) && p.DueDate.Before(end)
	})
}

func (s *FeedbackService) pendingWhere(keep func(models.PendingFeedbackItem) bool) []models.PendingFeedbackItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.PendingFeedbackItem{}
	for _, p := range s.pending {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// NextPending returns the oldest request, nil when the queue is empty
func (s *FeedbackService) NextPending() *models.PendingFeedbackItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.pending) == 0 {
		return nil
	}
	p := s.pending[0]
	return &p
}

// HasPending reports whether any request is queued
func (s *FeedbackService) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}

// HasSubmitted reports whether any record was submitted
func (s *FeedbackService) HasSubmitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submitted) > 0
}

// Stats returns the last computed statistics
func (s *FeedbackService) Stats() models.FeedbackStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// CompletionRate returns the submitted share of all requests as a whole percentage
func (s *FeedbackService) CompletionRate() int {
	return s.Stats().CompletionRate
}

// AverageRatings returns the personal and fairness averages
func (s *FeedbackService) AverageRatings() models.AverageRatings {
	st := s.Stats()
	return models.AverageRatings{Personal: st.AveragePersonalRating, Fairness: st.AverageFairnessRating}
}

// Current returns the wizard state
func (s *FeedbackService) Current() models.CurrentFeedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.current
	if c.Personal != nil {
		p := *c.Personal
		c.Personal = &p
	}
	return c
}

// CurrentForm returns the submitted record of the viewing the wizard is on, nil when none
func (s *FeedbackService) CurrentForm() *models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.ViewingID == "" {
		return nil
	}
	return s.forViewing(s.current.ViewingID)
}

// overallSatisfaction is the rounded mean of the personal overall rating and the four fairness ratings
func overallSatisfaction(p models.PersonalFeedback, f models.FairnessFeedback) int {
	sum := p.OverallRating +
		f.AdvertisedAccuracyRating +
		f.PriceFairnessRating +
		f.ResponsivenessRating +
		f.ProfessionalismRating
	return int(math.Round(float64(sum) / 5))
}

// computeStats averages the personal overall and advertised accuracy ratings.
// The completion rate is submitted over submitted plus pending.
func computeStats(submitted []models.Feedback, pending []models.PendingFeedbackItem) models.FeedbackStats {
	total := len(submitted) + len(pending)
	if total == 0 {
		return models.FeedbackStats{}
	}

	var personal, fairness float64
	for _, f := range submitted {
		personal += float64(f.Personal.OverallRating)
		fairness += float64(f.Fairness.AdvertisedAccuracyRating)
	}
	stats := models.FeedbackStats{
		TotalSubmitted: len(submitted),
		CompletionRate: int(math.Round(float64(len(submitted)) / float64(total) * 100)),
	}
	if len(submitted) > 0 {
		stats.AveragePersonalRating = math.Round(personal/float64(len(submitted))*10) / 10
		stats.AverageFairnessRating = math.Round(fairness/float64(len(submitted))*10) / 10
	}
	return stats
}

func withoutPending(pending []models.PendingFeedbackItem, viewingID string) []models.PendingFeedbackItem {
	out := make([]models.PendingFeedbackItem, 0, len(pending))
	for _, p := range pending {
		if p.ViewingID != viewingID {
			out = append(out, p)
		}
	}
	return out
}
