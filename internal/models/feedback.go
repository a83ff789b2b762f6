package models

import "time"

// FeedbackStep is the position of the two-step feedback wizard
type FeedbackStep string

const (
	StepPersonal FeedbackStep = "personal"
	StepFairness FeedbackStep = "fairness"
	StepComplete FeedbackStep = "complete"
)

// PersonalFeedback is the user's own impression of a viewing
type PersonalFeedback struct {
	OverallRating     int    `json:"overall_rating" validate:"min=1,max=5"`
	CleanlinessRating int    `json:"cleanliness_rating" validate:"min=1,max=5"`
	LocationRating    int    `json:"location_rating" validate:"min=1,max=5"`
	ValueRating       int    `json:"value_rating" validate:"min=1,max=5"`
	AmenitiesRating   int    `json:"amenities_rating" validate:"min=1,max=5"`
	Comments          string `json:"comments,omitempty"`
}

// FairnessFeedback rates how the listing and landlord behaved
type FairnessFeedback struct {
	AdvertisedAccuracyRating int    `json:"advertised_accuracy_rating" validate:"min=1,max=5"`
	PriceFairnessRating      int    `json:"price_fairness_rating" validate:"min=1,max=5"`
	ResponsivenessRating     int    `json:"responsiveness_rating" validate:"min=1,max=5"`
	ProfessionalismRating    int    `json:"professionalism_rating" validate:"min=1,max=5"`
	WouldRecommend           bool   `json:"would_recommend"`
	Suggestions              string `json:"suggestions,omitempty"`
}

// Feedback is a finalized post-viewing feedback record
type Feedback struct {
	ID                  string           `json:"id"`
	ViewingID           string           `json:"viewing_id"`
	ApartmentID         string           `json:"apartment_id"`
	SubmittedAt         time.Time        `json:"submitted_at"`
	Personal            PersonalFeedback `json:"personal"`
	Fairness            FairnessFeedback `json:"fairness"`
	OverallSatisfaction int              `json:"overall_satisfaction"`
}

// FeedbackPatch is a partial update of a submitted feedback record
type FeedbackPatch struct {
	Personal *PersonalFeedback `json:"personal,omitempty"`
	Fairness *FairnessFeedback `json:"fairness,omitempty"`
}

// FeedbackExport is the portable form of the feedback history
type FeedbackExport struct {
	Feedback   []Feedback `json:"feedback"`
	ExportedAt time.Time  `json:"exported_at"`
	Version    string     `json:"version"`
}

// FeedbackStats summarizes submitted and pending feedback
type FeedbackStats struct {
	TotalSubmitted        int     `json:"total_submitted"`
	AveragePersonalRating float64 `json:"average_personal_rating"`
	AverageFairnessRating float64 `json:"average_fairness_rating"`
	CompletionRate        int     `json:"completion_rate"`
}

// PendingFeedbackItem is a feedback request awaiting an answer
type PendingFeedbackItem struct {
	ViewingID   string    `json:"viewing_id"`
	ApartmentID string    `json:"apartment_id"`
	DueDate     time.Time `json:"due_date"`
}

// CurrentFeedback is the state of the feedback wizard. Only one flow may be in progress.
type CurrentFeedback struct {
	ViewingID string            `json:"viewing_id,omitempty"`
	Step      FeedbackStep      `json:"step"`
	Personal  *PersonalFeedback `json:"personal,omitempty"`
}

// AverageRatings are the rounded personal and fairness averages
type AverageRatings struct {
	Personal float64 `json:"personal"`
	Fairness float64 `json:"fairness"`
}
