package pacer

import "time"

// LearningRecord tracks the scheduling state of a single card for a learner.
// One record exists per learned card; it is created on first exposure and
// mutated only by applying the output of the baseline scheduler or the
// adaptive predictor.
type LearningRecord struct {
	CardID         string       `json:"card_id"`
	EaseFactor     float64      `json:"ease_factor"`
	Interval       int          `json:"interval"` // days
	LastReviewedAt time.Time    `json:"last_reviewed_at"`
	NextReviewAt   time.Time    `json:"next_review_at"`
	ReviewCount    int          `json:"review_count"`
	CorrectCount   int          `json:"correct_count"`
	WrongCount     int          `json:"wrong_count"`
	MasteryLevel   MasteryLevel `json:"mastery_level"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Accuracy returns the historical correct rate, or -1 when no graded
// attempts exist yet.
func (r *LearningRecord) Accuracy() float64 {
	attempts := r.CorrectCount + r.WrongCount
	if attempts == 0 {
		return -1
	}
	return float64(r.CorrectCount) / float64(attempts)
}

// MasteryLevel classifies how well a card is learned.
type MasteryLevel string

const (
	MasteryNew       MasteryLevel = "new"
	MasteryLearning  MasteryLevel = "learning"
	MasteryReviewing MasteryLevel = "reviewing"
	MasteryFamiliar  MasteryLevel = "familiar"
	MasteryMastered  MasteryLevel = "mastered"
)

// ValidMasteryLevels returns all mastery levels in ascending order.
func ValidMasteryLevels() []MasteryLevel {
	return []MasteryLevel{
		MasteryNew,
		MasteryLearning,
		MasteryReviewing,
		MasteryFamiliar,
		MasteryMastered,
	}
}

// IsValid checks if the mastery level is one of the defined levels.
func (m MasteryLevel) IsValid() bool {
	for _, valid := range ValidMasteryLevels() {
		if m == valid {
			return true
		}
	}
	return false
}

// EventAction classifies what kind of study attempt produced an event.
type EventAction string

const (
	ActionLearn  EventAction = "learn"
	ActionReview EventAction = "review"
	ActionQuiz   EventAction = "quiz"
)

// IsValid checks if the action is one of the defined actions.
func (a EventAction) IsValid() bool {
	return a == ActionLearn || a == ActionReview || a == ActionQuiz
}

// EventResult classifies the outcome of a study attempt.
type EventResult string

const (
	ResultCorrect   EventResult = "correct"
	ResultIncorrect EventResult = "incorrect"
	ResultPartial   EventResult = "partial"
)

// IsValid checks if the result is one of the defined results.
func (r EventResult) IsValid() bool {
	return r == ResultCorrect || r == ResultIncorrect || r == ResultPartial
}

// LearningEvent is one immutable record of a single study attempt.
// Events are appended to the pending buffer and discarded once folded
// into a profile update.
type LearningEvent struct {
	ID          string      `json:"id"`
	CardID      string      `json:"card_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Action      EventAction `json:"action"`
	Result      EventResult `json:"result"`
	Confidence  float64     `json:"confidence"`    // [0,1]
	TimeTakenMs int         `json:"time_taken_ms"` // >= 0
	SessionLen  int         `json:"session_len,omitempty"`
	HourOfDay   int         `json:"hour_of_day,omitempty"`
}

// Correct reports whether the event counts as a successful recall.
func (e *LearningEvent) Correct() bool {
	return e.Result == ResultCorrect
}

// Difficulty is the predictor's coarse difficulty classification.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty is one of the three allowed values.
func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// ReviewPlan is the scheduling decision for one card: when to show it
// next, with what confidence and rationale. Plans are transient; the
// caller persists the interval back into the record store.
type ReviewPlan struct {
	CardID          string     `json:"card_id"`
	NextReviewAt    time.Time  `json:"next_review_at"`
	IntervalHours   int        `json:"interval_hours"`
	Confidence      float64    `json:"confidence"` // [0,1]
	Difficulty      Difficulty `json:"difficulty"`
	Reasoning       string     `json:"reasoning"`
	SuggestedAction string     `json:"suggested_action"`
	Fallback        bool       `json:"fallback"`
}

// Baseline scheduler constants.
const (
	// EaseFactorFloor is the minimum ease factor. The update formula
	// never lets the multiplier drop below this value.
	EaseFactorFloor = 1.3

	// EaseFactorDefault is the ease factor assigned to new records.
	EaseFactorDefault = 2.5

	// ForgotPenalty is subtracted from the pre-update ease factor on a
	// failed recall, on top of the formula's own reduction. Tunable.
	ForgotPenalty = 0.2

	// HardRecallShrink scales down the next interval when recall
	// succeeded but was difficult (quality 3). Tunable.
	HardRecallShrink = 0.6
)

// Predictor constants.
const (
	// DefaultMinIntervalHours is the lower clamp for predicted intervals.
	DefaultMinIntervalHours = 1

	// DefaultMaxIntervalHours is the upper clamp for predicted intervals
	// (30 days).
	DefaultMaxIntervalHours = 720

	// FallbackConfidence is the confidence assigned to plans produced by
	// the non-adaptive fallback path.
	FallbackConfidence = 0.6
)

// Aggregator constants.
const (
	// DefaultMinEventsForUpdate is the buffer threshold that triggers a
	// profile recompute.
	DefaultMinEventsForUpdate = 5

	// DefaultMaxBufferedEvents caps the pending event buffer; oldest
	// events are dropped first.
	DefaultMaxBufferedEvents = 100

	// RecentItemWindow caps the distinct recently-seen card list passed
	// to the knowledge-graph dimension.
	RecentItemWindow = 20
)

// SelectOptions configures card selection for a session.
type SelectOptions struct {
	// Count is the maximum number of cards to return.
	Count int `json:"count"`

	// MaxReviewRatio bounds the share of Count filled from scored
	// review candidates. Zero means the default of 0.7.
	MaxReviewRatio float64 `json:"max_review_ratio,omitempty"`

	// IncludeNew fills remaining slots with never-studied cards.
	IncludeNew bool `json:"include_new"`
}

// ScoredCard pairs a card ID with its priority score.
type ScoredCard struct {
	CardID string  `json:"card_id"`
	Score  float64 `json:"score"`
}

// GradeParams describes one review outcome to fold into a card's
// schedule.
type GradeParams struct {
	CardID         string `json:"card_id"`
	Correct        bool   `json:"correct"`
	HintUsed       bool   `json:"hint_used,omitempty"`
	ResponseTimeMs int    `json:"response_time_ms,omitempty"`

	// Quality, when non-nil, overrides the outcome-derived quality
	// score.
	Quality *int `json:"quality,omitempty"`
}

// SelectedCard is one entry of a session selection, carrying the
// session reference used to grade it later.
type SelectedCard struct {
	CardID     string  `json:"card_id"`
	SessionRef string  `json:"session_ref"`
	Score      float64 `json:"score"`
	New        bool    `json:"new"`
}

// HealthStatus reports the health of a client and its dependencies.
type HealthStatus struct {
	Healthy            bool   `json:"healthy"`
	StoreOK            bool   `json:"store_ok"`
	ReasonerConfigured bool   `json:"reasoner_configured"`
	Error              string `json:"error,omitempty"`
}

// StoreStats contains statistics about the local store.
type StoreStats struct {
	LearnerID      string    `json:"learner_id"`
	RecordCount    int       `json:"record_count"`
	PendingEvents  int       `json:"pending_events"`
	ProfileVersion int       `json:"profile_version"`
	LastUpdate     time.Time `json:"last_update"`
	SchemaVersion  string    `json:"schema_version"`
}
