package pacer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Predictor produces a ReviewPlan per card, optionally informed by the
// learner profile and the card's event history, with a self-contained
// SM-2 equivalent as the unconditional fallback. Plan and PlanBatch
// never return an error: every provider failure, timeout, or malformed
// response degrades to the fallback path, distinguishable through the
// plan's Reasoning field.
type Predictor struct {
	reasoner Reasoner
	enabled  bool
	minHours int
	maxHours int
	debug    *DebugLogger
	now      func() time.Time
}

// NewPredictor creates a predictor. A nil reasoner or disabled adaptive
// mode means every plan takes the fallback path.
func NewPredictor(reasoner Reasoner, cfg Config) *Predictor {
	cfg = cfg.WithDefaults()
	return &Predictor{
		reasoner: reasoner,
		enabled:  cfg.EnableAIPrediction,
		minHours: cfg.MinIntervalHours,
		maxHours: cfg.MaxIntervalHours,
		now:      time.Now,
	}
}

// WithDebugLogger attaches a debug logger for provider communications.
func (p *Predictor) WithDebugLogger(l *DebugLogger) *Predictor {
	p.debug = l
	return p
}

// BatchItem pairs a card with its event history for PlanBatch.
type BatchItem struct {
	CardID  string
	History []LearningEvent
}

// Plan computes the review plan for one card. The profile may be nil;
// history may be empty. The returned plan's interval is always within
// the configured bounds.
func (p *Predictor) Plan(ctx context.Context, cardID string, profile *LearnerProfile, history []LearningEvent) ReviewPlan {
	now := p.now().UTC()

	if !p.enabled || p.reasoner == nil {
		return p.fallbackPlan(cardID, history, now, "adaptive prediction disabled")
	}
	if profile == nil {
		return p.fallbackPlan(cardID, history, now, "no learner profile")
	}

	stats := analyzeHistory(history, now)
	guidance := baselineGuidanceHours(stats)

	content, err := p.reasoner.Send(ctx, planSystemPrompt, p.buildPlanPrompt(cardID, profile, stats, guidance))
	if err != nil {
		p.debug.LogError("plan", err)
		return p.fallbackPlan(cardID, history, now, "provider error")
	}
	if ctx.Err() != nil {
		// The caller abandoned the request; discard the late result.
		return p.fallbackPlan(cardID, history, now, "request cancelled")
	}
	p.debug.LogResponse(0, "plan", []byte(content))

	var raw providerPlan
	if !decodeExtracted(content, &raw) {
		return p.fallbackPlan(cardID, history, now, "unparseable provider response")
	}
	if raw.Interval == nil {
		return p.fallbackPlan(cardID, history, now, "missing interval in provider response")
	}

	return p.planFromProvider(cardID, &raw, now)
}

// PlanBatch computes plans for several cards with a single combined
// provider request. A parse failure for the whole batch, a provider
// error, or a missing per-card result each degrade that card — or all
// cards — to the fallback path without retrying the batch call.
func (p *Predictor) PlanBatch(ctx context.Context, items []BatchItem, profile *LearnerProfile) []ReviewPlan {
	now := p.now().UTC()
	plans := make([]ReviewPlan, len(items))

	fallbackAll := func(cause string) []ReviewPlan {
		for i, item := range items {
			plans[i] = p.fallbackPlan(item.CardID, item.History, now, cause)
		}
		return plans
	}

	if !p.enabled || p.reasoner == nil {
		return fallbackAll("adaptive prediction disabled")
	}
	if profile == nil {
		return fallbackAll("no learner profile")
	}
	if len(items) == 0 {
		return plans
	}

	content, err := p.reasoner.Send(ctx, planBatchSystemPrompt, p.buildBatchPrompt(items, profile, now))
	if err != nil {
		p.debug.LogError("plan_batch", err)
		return fallbackAll("provider error")
	}
	if ctx.Err() != nil {
		return fallbackAll("request cancelled")
	}

	var raws []providerPlan
	if !decodeExtracted(content, &raws) {
		return fallbackAll("unparseable batch response")
	}

	byCard := make(map[string]*providerPlan, len(raws))
	for i := range raws {
		byCard[raws[i].CardID] = &raws[i]
	}

	for i, item := range items {
		raw, ok := byCard[item.CardID]
		if !ok || raw.Interval == nil {
			plans[i] = p.fallbackPlan(item.CardID, item.History, now, "missing batch result")
			continue
		}
		plans[i] = p.planFromProvider(item.CardID, raw, now)
	}
	return plans
}

// providerPlan mirrors the JSON object the provider is instructed to
// return. Interval is a pointer so a missing field is distinguishable
// from zero.
type providerPlan struct {
	CardID          string   `json:"card_id,omitempty"`
	Interval        *float64 `json:"interval"`
	Confidence      float64  `json:"confidence"`
	Difficulty      string   `json:"difficulty"`
	Reasoning       string   `json:"reasoning"`
	SuggestedAction string   `json:"suggested_action"`
}

// planFromProvider converts a parsed provider result into a bounded
// ReviewPlan. All numeric fields are clamped, difficulty is coerced to
// a valid value, and absent text gets generic defaults.
func (p *Predictor) planFromProvider(cardID string, raw *providerPlan, now time.Time) ReviewPlan {
	hours := p.clampHours(int(math.Round(*raw.Interval)))

	difficulty := Difficulty(strings.ToLower(strings.TrimSpace(raw.Difficulty)))
	if !difficulty.IsValid() {
		difficulty = DifficultyMedium
	}

	reasoning := strings.TrimSpace(raw.Reasoning)
	if reasoning == "" {
		reasoning = "adaptive schedule from learner profile"
	}
	action := strings.TrimSpace(raw.SuggestedAction)
	if action == "" {
		action = "review"
	}

	return ReviewPlan{
		CardID:          cardID,
		NextReviewAt:    now.Add(time.Duration(hours) * time.Hour),
		IntervalHours:   hours,
		Confidence:      clampUnit(raw.Confidence),
		Difficulty:      difficulty,
		Reasoning:       reasoning,
		SuggestedAction: action,
	}
}

// fallbackPlan is the non-adaptive path: a self-contained SM-2
// equivalent over the correct/incorrect counts in the history. The
// cause string makes each fallback distinguishable for observability.
func (p *Predictor) fallbackPlan(cardID string, history []LearningEvent, now time.Time, cause string) ReviewPlan {
	var correct, incorrect int
	for i := range history {
		if history[i].Correct() {
			correct++
		} else if history[i].Result == ResultIncorrect {
			incorrect++
		}
	}

	var hours int
	switch {
	case correct >= 3:
		hours = 24 * (1 << (correct - 2))
	case incorrect > 0:
		hours = 12
	default:
		hours = 24
	}
	hours = p.clampHours(hours)

	difficulty := DifficultyHard
	switch {
	case correct >= 3:
		difficulty = DifficultyEasy
	case correct >= 1:
		difficulty = DifficultyMedium
	}

	return ReviewPlan{
		CardID:          cardID,
		NextReviewAt:    now.Add(time.Duration(hours) * time.Hour),
		IntervalHours:   hours,
		Confidence:      FallbackConfidence,
		Difficulty:      difficulty,
		Reasoning:       "baseline schedule (" + cause + ")",
		SuggestedAction: "review",
		Fallback:        true,
	}
}

func (p *Predictor) clampHours(hours int) int {
	if hours < p.minHours {
		return p.minHours
	}
	if hours > p.maxHours {
		return p.maxHours
	}
	return hours
}

// historyStats is the deterministic pre-analysis of a card's event
// history that grounds the provider's reasoning.
type historyStats struct {
	attempts       int
	correct        int
	incorrect      int
	correctRate    float64
	meanResponseMs float64
	recentBucket   string
	lastAction     EventAction
	lastResult     EventResult
	sinceLast      time.Duration
}

// analyzeHistory summarizes the event history: totals, correct rate,
// mean response time, a recent-performance bucket over the last five
// events, and elapsed time since the last event.
func analyzeHistory(history []LearningEvent, now time.Time) historyStats {
	stats := historyStats{recentBucket: "unknown"}
	if len(history) == 0 {
		return stats
	}

	sorted := make([]LearningEvent, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var totalMs int
	for i := range sorted {
		stats.attempts++
		if sorted[i].Correct() {
			stats.correct++
		} else if sorted[i].Result == ResultIncorrect {
			stats.incorrect++
		}
		totalMs += sorted[i].TimeTakenMs
	}
	stats.correctRate = float64(stats.correct) / float64(stats.attempts)
	stats.meanResponseMs = float64(totalMs) / float64(stats.attempts)

	last := sorted[len(sorted)-1]
	stats.lastAction = last.Action
	stats.lastResult = last.Result
	stats.sinceLast = now.Sub(last.Timestamp)

	recent := sorted
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	recentCorrect := 0
	for i := range recent {
		if recent[i].Correct() {
			recentCorrect++
		}
	}
	switch {
	case recentCorrect == len(recent):
		stats.recentBucket = "excellent"
	case recentCorrect >= 3:
		stats.recentBucket = "good"
	case recentCorrect <= 1:
		stats.recentBucket = "weak"
	default:
		stats.recentBucket = "mixed"
	}

	return stats
}

// baselineGuidanceHours derives staged interval guidance from attempt
// count and correct rate, scaled by a response-time multiplier. The
// result anchors the provider's prediction; it is advisory, not a
// bound.
func baselineGuidanceHours(stats historyStats) float64 {
	var hours float64
	switch {
	case stats.attempts <= 1:
		hours = 4
	case stats.attempts <= 3:
		if stats.correctRate >= 0.8 {
			hours = 24
		} else {
			hours = 4
		}
	case stats.attempts <= 10:
		if stats.correctRate >= 0.9 {
			hours = 120
		} else {
			hours = 24
		}
	default:
		if stats.correctRate >= 0.95 {
			hours = 336
		} else {
			hours = 48
		}
	}

	switch {
	case stats.meanResponseMs < 1500:
		hours *= 1.5
	case stats.meanResponseMs < 2500:
		hours *= 1.2
	case stats.meanResponseMs < 4000:
		// no adjustment
	default:
		hours *= 0.7
	}
	return hours
}

const planSystemPrompt = `You are a spaced-repetition scheduling engine. ` +
	`Given a learner profile and a card's review history, predict the optimal next review interval. ` +
	`Respond with strictly one JSON object and nothing else: ` +
	`{"interval": <integer hours>, "confidence": <float 0-1>, "difficulty": "easy"|"medium"|"hard", ` +
	`"reasoning": "<short explanation>", "suggested_action": "<short recommendation>"}`

const planBatchSystemPrompt = `You are a spaced-repetition scheduling engine. ` +
	`Given a learner profile and summaries of several cards, predict the optimal next review interval for each. ` +
	`Respond with strictly one JSON array and nothing else; one object per card: ` +
	`[{"card_id": "<id>", "interval": <integer hours>, "confidence": <float 0-1>, ` +
	`"difficulty": "easy"|"medium"|"hard", "reasoning": "<short>", "suggested_action": "<short>"}]`

func (p *Predictor) buildPlanPrompt(cardID string, profile *LearnerProfile, stats historyStats, guidance float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Card: %s\n\n", cardID)
	b.WriteString(profileSummary(profile))
	fmt.Fprintf(&b, "\nReview history:\n")
	fmt.Fprintf(&b, "- attempts: %d (correct rate %.2f)\n", stats.attempts, stats.correctRate)
	fmt.Fprintf(&b, "- mean response time: %.0f ms\n", stats.meanResponseMs)
	fmt.Fprintf(&b, "- recent performance: %s\n", stats.recentBucket)
	if stats.lastAction != "" {
		fmt.Fprintf(&b, "- last attempt: %s/%s, %.1f hours ago\n", stats.lastAction, stats.lastResult, stats.sinceLast.Hours())
	}
	fmt.Fprintf(&b, "\nStaged baseline guidance: ~%.0f hours.\n", guidance)
	fmt.Fprintf(&b, "Interval must be between %d and %d hours.\n", p.minHours, p.maxHours)
	return b.String()
}

func (p *Predictor) buildBatchPrompt(items []BatchItem, profile *LearnerProfile, now time.Time) string {
	var b strings.Builder
	b.WriteString(profileSummary(profile))
	b.WriteString("\nCards:\n")
	for _, item := range items {
		stats := analyzeHistory(item.History, now)
		fmt.Fprintf(&b, "- %s: %d attempts, correct rate %.2f, mean response %.0f ms, recent %s, guidance ~%.0f h\n",
			item.CardID, stats.attempts, stats.correctRate, stats.meanResponseMs,
			stats.recentBucket, baselineGuidanceHours(stats))
	}
	fmt.Fprintf(&b, "\nIntervals must be between %d and %d hours.\n", p.minHours, p.maxHours)
	return b.String()
}

// profileSummary renders the profile dimensions relevant to interval
// prediction in compact prose.
func profileSummary(p *LearnerProfile) string {
	var b strings.Builder
	b.WriteString("Learner profile:\n")
	fmt.Fprintf(&b, "- memory: short-term %.2f, long-term %.2f, stability %.2f, optimal interval hint %dh\n",
		p.MemoryPattern.ShortTermRetention, p.MemoryPattern.LongTermRetention,
		p.MemoryPattern.Stability, p.MemoryPattern.OptimalIntervalH)
	fmt.Fprintf(&b, "- behavior: mean response %.0f ms, consistency %.2f\n",
		p.Behavior.MeanResponseMs, p.Behavior.ConsistencyScore)
	fmt.Fprintf(&b, "- emotional: confidence %.2f, motivation %.2f, frustration %.2f\n",
		p.Emotional.Confidence, p.Emotional.Motivation, p.Emotional.Frustration)
	if len(p.Knowledge.WeakTopics) > 0 {
		fmt.Fprintf(&b, "- weak topics: %s\n", strings.Join(p.Knowledge.WeakTopics, ", "))
	}
	return b.String()
}
