package pacer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// updateTimeout bounds the asynchronous profile recompute triggered by
// RecordEvent. A provider that never answers is treated as failed.
const updateTimeout = 60 * time.Second

// Aggregator buffers learning events and, once the threshold
// accumulates, recomputes the learner profile's analyzable dimensions
// through the reasoning provider. It exclusively owns the pending-event
// buffer and the profile's mutation lifecycle: the buffer is cleared
// only when every dimension succeeds, so a transient provider failure
// never loses events.
type Aggregator struct {
	store     *Store
	reasoner  Reasoner
	threshold int
	maxBuffer int
	debug     *DebugLogger

	mu       sync.Mutex
	profile  *LearnerProfile
	updating bool
	now      func() time.Time
	entropy  *rand.Rand
}

// NewAggregator creates an aggregator bound to the store's learner,
// loading (or creating) the profile snapshot.
func NewAggregator(s *Store, reasoner Reasoner, cfg Config) (*Aggregator, error) {
	cfg = cfg.WithDefaults()

	profile, err := s.LoadProfile()
	if err != nil {
		return nil, err
	}

	return &Aggregator{
		store:     s,
		reasoner:  reasoner,
		threshold: cfg.MinEventsForUpdate,
		maxBuffer: cfg.MaxBufferedEvents,
		profile:   profile,
		now:       time.Now,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// WithDebugLogger attaches a debug logger for provider communications.
func (a *Aggregator) WithDebugLogger(l *DebugLogger) *Aggregator {
	a.debug = l
	return a
}

// Profile returns a consistent snapshot of the current learner profile.
// The snapshot is fully merged; a concurrent update never exposes a
// half-written profile.
func (a *Aggregator) Profile() *LearnerProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile.Clone()
}

// RecordEvent validates and persists a learning event into the pending
// buffer. When the buffer reaches the update threshold, an asynchronous
// profile recompute is triggered; its provider failures never propagate
// here. The returned error only reflects validation or local storage
// problems.
func (a *Aggregator) RecordEvent(ctx context.Context, e LearningEvent) error {
	if e.CardID == "" {
		return ErrEmptyCardID
	}
	if !e.Action.IsValid() {
		return ErrInvalidAction
	}
	if !e.Result.IsValid() {
		return ErrInvalidResult
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return ErrInvalidConfidence
	}
	if e.TimeTakenMs < 0 {
		e.TimeTakenMs = 0
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = a.now().UTC()
	}
	if e.ID == "" {
		a.mu.Lock()
		e.ID = ulid.MustNew(ulid.Timestamp(e.Timestamp), a.entropy).String()
		a.mu.Unlock()
	}
	if e.HourOfDay == 0 {
		e.HourOfDay = e.Timestamp.Hour()
	}

	if err := a.store.AppendEvent(&e, a.maxBuffer); err != nil {
		return err
	}

	count, err := a.store.PendingCount()
	if err != nil {
		return err
	}
	if count >= a.threshold {
		a.triggerUpdate()
	}
	return nil
}

// triggerUpdate starts an asynchronous profile recompute unless one is
// already in flight. Failures leave the buffer intact, so the next
// RecordEvent retries naturally.
func (a *Aggregator) triggerUpdate() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		if err := a.UpdateNow(ctx); err != nil && err != ErrUpdateInFlight {
			a.debug.LogError("profile_update", err)
		}
	}()
}

// UpdateNow runs one profile update cycle synchronously. It returns
// ErrUpdateInFlight when another cycle is running, nil when the buffer
// is below threshold, and the provider/parse error when any dimension
// fails — in which case the buffer is untouched and the prior profile
// snapshot stays authoritative.
func (a *Aggregator) UpdateNow(ctx context.Context) error {
	a.mu.Lock()
	if a.updating {
		a.mu.Unlock()
		return ErrUpdateInFlight
	}
	a.updating = true
	current := a.profile.Clone()
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.updating = false
		a.mu.Unlock()
	}()

	events, err := a.store.PendingEvents()
	if err != nil {
		return err
	}
	if len(events) < a.threshold {
		return nil
	}

	next, err := a.recompute(ctx, current, events)
	if err != nil {
		a.debug.LogUpdate("failed", err.Error())
		return err
	}

	consumed := make([]string, len(events))
	for i := range events {
		consumed[i] = events[i].ID
	}
	if err := a.store.SaveProfileAndClearEvents(next, consumed); err != nil {
		return err
	}

	a.mu.Lock()
	a.profile = next
	a.mu.Unlock()

	a.debug.LogUpdate("success", fmt.Sprintf("version %d, %d events folded", next.Version, len(events)))
	return nil
}

// analyzable dimensions recomputed each cycle. Learning goals are set
// by the caller and never derived from events.
var profileDimensions = []string{
	"cognitive_style",
	"memory_pattern",
	"behavior",
	"knowledge",
	"emotional",
}

// recompute runs all five dimension calls in parallel and merges the
// results into a new snapshot. Any single failure fails the whole
// update; partial successes are discarded to avoid inconsistent
// profiles.
func (a *Aggregator) recompute(ctx context.Context, current *LearnerProfile, events []LearningEvent) (*LearnerProfile, error) {
	if a.reasoner == nil {
		return nil, ErrNoReasoner
	}

	pre := preAggregate(events)

	type dimResult struct {
		name  string
		apply func(*LearnerProfile)
		err   error
	}

	results := make(chan dimResult, len(profileDimensions))
	for _, name := range profileDimensions {
		go func(name string) {
			apply, err := a.recomputeDimension(ctx, name, current, pre)
			results <- dimResult{name: name, apply: apply, err: err}
		}(name)
	}

	applies := make([]func(*LearnerProfile), 0, len(profileDimensions))
	var firstErr error
	for range profileDimensions {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("dimension %s: %w", r.name, r.err)
			}
			continue
		}
		applies = append(applies, r.apply)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	next := current.Clone()
	for _, apply := range applies {
		apply(next)
	}

	now := a.now().UTC()
	next.Knowledge.RecentItems = pre.recentItems
	next.Knowledge.LastUpdated = now
	next.Version = current.Version + 1
	next.LastUpdated = now
	return next, nil
}

// recomputeDimension asks the provider for one dimension's fields and
// returns a merge closure. The closure applies the parsed values with
// per-field validation: invalid values fall back to the profile's
// current value, never to an arbitrary constant.
func (a *Aggregator) recomputeDimension(ctx context.Context, name string, current *LearnerProfile, pre preAggregation) (func(*LearnerProfile), error) {
	prompt := buildDimensionPrompt(name, current, pre)
	a.debug.LogPrompt(name, prompt)

	content, err := a.reasoner.Send(ctx, dimensionSystemPrompt(name), prompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyResponse
	}
	a.debug.LogResponse(0, name, []byte(content))

	now := a.now().UTC()

	switch name {
	case "cognitive_style":
		var raw struct {
			Visual     *float64 `json:"visual"`
			Verbal     *float64 `json:"verbal"`
			Contextual *float64 `json:"contextual"`
		}
		if !decodeExtracted(content, &raw) {
			return nil, fmt.Errorf("%w: cognitive_style", ErrEmptyResponse)
		}
		return func(p *LearnerProfile) {
			p.CognitiveStyle.Visual = unitOr(raw.Visual, p.CognitiveStyle.Visual)
			p.CognitiveStyle.Verbal = unitOr(raw.Verbal, p.CognitiveStyle.Verbal)
			p.CognitiveStyle.Contextual = unitOr(raw.Contextual, p.CognitiveStyle.Contextual)
			p.CognitiveStyle.LastUpdated = now
		}, nil

	case "memory_pattern":
		var raw struct {
			ShortTermRetention *float64  `json:"short_term_retention"`
			LongTermRetention  *float64  `json:"long_term_retention"`
			ForgettingCurve    []float64 `json:"forgetting_curve"`
			OptimalIntervalH   *float64  `json:"optimal_interval_h"`
			Stability          *float64  `json:"stability"`
		}
		if !decodeExtracted(content, &raw) {
			return nil, fmt.Errorf("%w: memory_pattern", ErrEmptyResponse)
		}
		return func(p *LearnerProfile) {
			p.MemoryPattern.ShortTermRetention = unitOr(raw.ShortTermRetention, p.MemoryPattern.ShortTermRetention)
			p.MemoryPattern.LongTermRetention = unitOr(raw.LongTermRetention, p.MemoryPattern.LongTermRetention)
			if len(raw.ForgettingCurve) == 5 {
				var curve [5]float64
				copy(curve[:], raw.ForgettingCurve)
				p.MemoryPattern.ForgettingCurve = normalizeCurve(curve)
			}
			if raw.OptimalIntervalH != nil && *raw.OptimalIntervalH >= 1 {
				p.MemoryPattern.OptimalIntervalH = int(*raw.OptimalIntervalH)
			}
			p.MemoryPattern.Stability = unitOr(raw.Stability, p.MemoryPattern.Stability)
			p.MemoryPattern.LastUpdated = now
		}, nil

	case "behavior":
		var raw struct {
			PreferredHour    *float64 `json:"preferred_hour"`
			SessionMinutes   *float64 `json:"session_minutes"`
			ErrorPatterns    []string `json:"error_patterns"`
			MeanResponseMs   *float64 `json:"mean_response_ms"`
			ConsistencyScore *float64 `json:"consistency_score"`
		}
		if !decodeExtracted(content, &raw) {
			return nil, fmt.Errorf("%w: behavior", ErrEmptyResponse)
		}
		return func(p *LearnerProfile) {
			if raw.PreferredHour != nil && *raw.PreferredHour >= 0 && *raw.PreferredHour <= 23 {
				p.Behavior.PreferredHour = int(*raw.PreferredHour)
			}
			if raw.SessionMinutes != nil && *raw.SessionMinutes > 0 {
				p.Behavior.SessionMinutes = int(*raw.SessionMinutes)
			}
			if raw.ErrorPatterns != nil {
				p.Behavior.ErrorPatterns = raw.ErrorPatterns
			}
			if raw.MeanResponseMs != nil && *raw.MeanResponseMs >= 0 {
				p.Behavior.MeanResponseMs = *raw.MeanResponseMs
			}
			p.Behavior.ConsistencyScore = unitOr(raw.ConsistencyScore, p.Behavior.ConsistencyScore)
			p.Behavior.LastUpdated = now
		}, nil

	case "knowledge":
		var raw struct {
			VocabularySize *float64            `json:"vocabulary_size"`
			MasteredTopics []string            `json:"mastered_topics"`
			WeakTopics     []string            `json:"weak_topics"`
			Associations   map[string][]string `json:"associations"`
		}
		if !decodeExtracted(content, &raw) {
			return nil, fmt.Errorf("%w: knowledge", ErrEmptyResponse)
		}
		return func(p *LearnerProfile) {
			if raw.VocabularySize != nil && *raw.VocabularySize >= 0 {
				p.Knowledge.VocabularySize = int(*raw.VocabularySize)
			}
			if raw.MasteredTopics != nil {
				p.Knowledge.MasteredTopics = raw.MasteredTopics
			}
			if raw.WeakTopics != nil {
				p.Knowledge.WeakTopics = raw.WeakTopics
			}
			if raw.Associations != nil {
				p.Knowledge.Associations = raw.Associations
			}
		}, nil

	case "emotional":
		var raw struct {
			Confidence  *float64 `json:"confidence"`
			Motivation  *float64 `json:"motivation"`
			Frustration *float64 `json:"frustration"`
			FlowScore   *float64 `json:"flow_score"`
		}
		if !decodeExtracted(content, &raw) {
			return nil, fmt.Errorf("%w: emotional", ErrEmptyResponse)
		}
		return func(p *LearnerProfile) {
			p.Emotional.Confidence = unitOr(raw.Confidence, p.Emotional.Confidence)
			p.Emotional.Motivation = unitOr(raw.Motivation, p.Emotional.Motivation)
			p.Emotional.Frustration = unitOr(raw.Frustration, p.Emotional.Frustration)
			p.Emotional.FlowScore = unitOr(raw.FlowScore, p.Emotional.FlowScore)
			p.Emotional.LastUpdated = now
		}, nil

	default:
		return nil, fmt.Errorf("unknown dimension: %s", name)
	}
}

// preAggregation holds the deterministic local summaries that ground
// each dimension prompt.
type preAggregation struct {
	eventCount    int
	correctRate   float64
	meanRespMs    float64
	hourHistogram [24]int
	peakHour      int
	recentItems   []string
	wrongCards    []string
}

// preAggregate computes local summaries from the pending events so the
// provider reasons over facts instead of raw noise.
func preAggregate(events []LearningEvent) preAggregation {
	pre := preAggregation{}
	pre.eventCount = len(events)
	if len(events) == 0 {
		return pre
	}

	var correct, totalMs int
	seen := make(map[string]bool)
	wrong := make(map[string]bool)
	for i := range events {
		e := &events[i]
		if e.Correct() {
			correct++
		} else if e.Result == ResultIncorrect {
			wrong[e.CardID] = true
		}
		totalMs += e.TimeTakenMs
		pre.hourHistogram[e.Timestamp.Hour()]++
		if !seen[e.CardID] {
			seen[e.CardID] = true
			pre.recentItems = append(pre.recentItems, e.CardID)
		}
	}
	pre.correctRate = float64(correct) / float64(len(events))
	pre.meanRespMs = float64(totalMs) / float64(len(events))

	for hour, n := range pre.hourHistogram {
		if n > pre.hourHistogram[pre.peakHour] {
			pre.peakHour = hour
		}
	}

	// Keep only the most recent distinct items.
	if len(pre.recentItems) > RecentItemWindow {
		pre.recentItems = pre.recentItems[len(pre.recentItems)-RecentItemWindow:]
	}

	for id := range wrong {
		pre.wrongCards = append(pre.wrongCards, id)
	}
	sort.Strings(pre.wrongCards)

	return pre
}

func dimensionSystemPrompt(name string) string {
	return fmt.Sprintf(`You analyze a language learner's study events. `+
		`Respond with strictly one JSON object scoped to the %s dimension, and nothing else. `+
		`All rates and scores are floats between 0 and 1.`, name)
}

func buildDimensionPrompt(name string, current *LearnerProfile, pre preAggregation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Observed batch: %d events, correct rate %.2f, mean response %.0f ms, peak study hour %d.\n",
		pre.eventCount, pre.correctRate, pre.meanRespMs, pre.peakHour)
	if len(pre.wrongCards) > 0 {
		fmt.Fprintf(&b, "Cards answered incorrectly: %s.\n", strings.Join(pre.wrongCards, ", "))
	}
	if len(pre.recentItems) > 0 {
		fmt.Fprintf(&b, "Recently studied: %s.\n", strings.Join(pre.recentItems, ", "))
	}

	switch name {
	case "cognitive_style":
		fmt.Fprintf(&b, "\nCurrent: visual %.2f, verbal %.2f, contextual %.2f.\n",
			current.CognitiveStyle.Visual, current.CognitiveStyle.Verbal, current.CognitiveStyle.Contextual)
		b.WriteString(`Return {"visual": <0-1>, "verbal": <0-1>, "contextual": <0-1>}.`)
	case "memory_pattern":
		fmt.Fprintf(&b, "\nCurrent: short-term %.2f, long-term %.2f, stability %.2f, optimal interval %dh.\n",
			current.MemoryPattern.ShortTermRetention, current.MemoryPattern.LongTermRetention,
			current.MemoryPattern.Stability, current.MemoryPattern.OptimalIntervalH)
		b.WriteString(`Return {"short_term_retention": <0-1>, "long_term_retention": <0-1>, ` +
			`"forgetting_curve": [five descending 0-1 points], "optimal_interval_h": <hours>, "stability": <0-1>}.`)
	case "behavior":
		fmt.Fprintf(&b, "\nCurrent: preferred hour %d, session %d min, mean response %.0f ms, consistency %.2f.\n",
			current.Behavior.PreferredHour, current.Behavior.SessionMinutes,
			current.Behavior.MeanResponseMs, current.Behavior.ConsistencyScore)
		b.WriteString(`Return {"preferred_hour": <0-23>, "session_minutes": <minutes>, "error_patterns": [tags], ` +
			`"mean_response_ms": <ms>, "consistency_score": <0-1>}.`)
	case "knowledge":
		fmt.Fprintf(&b, "\nCurrent vocabulary size: %d.\n", current.Knowledge.VocabularySize)
		b.WriteString(`Return {"vocabulary_size": <count>, "mastered_topics": [tags], "weak_topics": [tags], ` +
			`"associations": {"item": [related items]}}.`)
	case "emotional":
		fmt.Fprintf(&b, "\nCurrent: confidence %.2f, motivation %.2f, frustration %.2f, flow %.2f.\n",
			current.Emotional.Confidence, current.Emotional.Motivation,
			current.Emotional.Frustration, current.Emotional.FlowScore)
		b.WriteString(`Return {"confidence": <0-1>, "motivation": <0-1>, "frustration": <0-1>, "flow_score": <0-1>}.`)
	}
	return b.String()
}
