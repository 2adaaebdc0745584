package pacer

import "time"

// LearnerProfile is a six-dimension summary of a learner's cognitive,
// behavioral, and emotional characteristics, used to personalize
// scheduling. One profile exists per learner; it is created with neutral
// defaults on first use and mutated only by the aggregator's update
// cycle.
type LearnerProfile struct {
	LearnerID      string             `json:"learner_id"`
	CognitiveStyle CognitiveStyle     `json:"cognitive_style"`
	MemoryPattern  MemoryPattern      `json:"memory_pattern"`
	Behavior       BehaviorPattern    `json:"behavior"`
	Knowledge      KnowledgeGraph     `json:"knowledge"`
	Emotional      EmotionalState     `json:"emotional"`
	Goals          LearningGoals      `json:"goals"`
	Version        int                `json:"version"`
	LastUpdated    time.Time          `json:"last_updated"`
}

// CognitiveStyle describes how the learner prefers to absorb material.
// The three weights are independent values in [0,1]; they do not need to
// sum to any fixed total.
type CognitiveStyle struct {
	Visual      float64   `json:"visual"`
	Verbal      float64   `json:"verbal"`
	Contextual  float64   `json:"contextual"`
	LastUpdated time.Time `json:"last_updated"`
}

// MemoryPattern models the learner's retention behavior.
type MemoryPattern struct {
	ShortTermRetention float64    `json:"short_term_retention"` // [0,1]
	LongTermRetention  float64    `json:"long_term_retention"`  // [0,1]
	ForgettingCurve    [5]float64 `json:"forgetting_curve"`     // descending retention points
	OptimalIntervalH   int        `json:"optimal_interval_h"`   // hint, hours
	Stability          float64    `json:"stability"`            // [0,1]
	LastUpdated        time.Time  `json:"last_updated"`
}

// BehaviorPattern summarizes observable study habits.
type BehaviorPattern struct {
	PreferredHour    int       `json:"preferred_hour"` // 0-23
	SessionMinutes   int       `json:"session_minutes"`
	ErrorPatterns    []string  `json:"error_patterns,omitempty"`
	MeanResponseMs   float64   `json:"mean_response_ms"`
	ConsistencyScore float64   `json:"consistency_score"` // [0,1]
	LastUpdated      time.Time `json:"last_updated"`
}

// KnowledgeGraph tracks what the learner knows and how items relate.
type KnowledgeGraph struct {
	VocabularySize int                 `json:"vocabulary_size"`
	MasteredTopics []string            `json:"mastered_topics,omitempty"`
	WeakTopics     []string            `json:"weak_topics,omitempty"`
	Associations   map[string][]string `json:"associations,omitempty"`
	RecentItems    []string            `json:"recent_items,omitempty"` // cap RecentItemWindow
	LastUpdated    time.Time           `json:"last_updated"`
}

// EmotionalState estimates the learner's affective condition.
// All fields are in [0,1].
type EmotionalState struct {
	Confidence  float64   `json:"confidence"`
	Motivation  float64   `json:"motivation"`
	Frustration float64   `json:"frustration"`
	FlowScore   float64   `json:"flow_score"`
	LastUpdated time.Time `json:"last_updated"`
}

// LearningGoals captures what the learner is working toward.
// Goals are set by the caller, not derived from events, so the
// aggregator leaves this dimension untouched.
type LearningGoals struct {
	TargetLevel    string    `json:"target_level,omitempty"`
	Progress       float64   `json:"progress"` // [0,1]
	PriorityTopics []string  `json:"priority_topics,omitempty"`
	TargetSize     int       `json:"target_size"`
	DeadlineDays   int       `json:"deadline_days"`
	LastUpdated    time.Time `json:"last_updated"`
}

// NewProfile creates a profile with neutral defaults for the learner.
func NewProfile(learnerID string) *LearnerProfile {
	now := time.Now().UTC()
	return &LearnerProfile{
		LearnerID: learnerID,
		CognitiveStyle: CognitiveStyle{
			Visual:      0.5,
			Verbal:      0.5,
			Contextual:  0.5,
			LastUpdated: now,
		},
		MemoryPattern: MemoryPattern{
			ShortTermRetention: 0.5,
			LongTermRetention:  0.5,
			ForgettingCurve:    DefaultForgettingCurve(),
			OptimalIntervalH:   24,
			Stability:          0.5,
			LastUpdated:        now,
		},
		Behavior: BehaviorPattern{
			PreferredHour:    9,
			SessionMinutes:   15,
			MeanResponseMs:   3000,
			ConsistencyScore: 0.5,
			LastUpdated:      now,
		},
		Knowledge: KnowledgeGraph{
			LastUpdated: now,
		},
		Emotional: EmotionalState{
			Confidence:  0.5,
			Motivation:  0.5,
			Frustration: 0.0,
			FlowScore:   0.5,
			LastUpdated: now,
		},
		Goals: LearningGoals{
			Progress:    0,
			LastUpdated: now,
		},
		Version:     1,
		LastUpdated: now,
	}
}

// Clone returns a deep copy of the profile. The aggregator merges
// dimension results into a clone so readers never observe a
// half-written profile.
func (p *LearnerProfile) Clone() *LearnerProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Behavior.ErrorPatterns = cloneStrings(p.Behavior.ErrorPatterns)
	out.Knowledge.MasteredTopics = cloneStrings(p.Knowledge.MasteredTopics)
	out.Knowledge.WeakTopics = cloneStrings(p.Knowledge.WeakTopics)
	out.Knowledge.RecentItems = cloneStrings(p.Knowledge.RecentItems)
	out.Goals.PriorityTopics = cloneStrings(p.Goals.PriorityTopics)
	if p.Knowledge.Associations != nil {
		out.Knowledge.Associations = make(map[string][]string, len(p.Knowledge.Associations))
		for k, v := range p.Knowledge.Associations {
			out.Knowledge.Associations[k] = cloneStrings(v)
		}
	}
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// clampUnit constrains v to [0,1]. Out-of-range provider output is
// normalized, never surfaced as an error.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// unitOr validates a provider-supplied unit-interval value, falling back
// to the profile's current value when the input is not a finite number
// in range. Falling back to the current value (never a constant)
// preserves continuity across partially invalid responses.
func unitOr(v *float64, current float64) float64 {
	if v == nil {
		return current
	}
	f := *v
	if f != f { // NaN
		return current
	}
	return clampUnit(f)
}
