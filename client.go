package pacer

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hyperengineering/pacer/internal/reasoner"
)

// Client is the main interface for scheduling a learner's reviews. It
// owns the local store, the event aggregator, the baseline scheduler,
// the adaptive predictor, and the priority scorer, and wires them into
// one coherent lifecycle.
type Client struct {
	store      *Store
	aggregator *Aggregator
	predictor  *Predictor
	sm2        *SM2
	scorer     *Scorer
	session    *Session
	config     Config
	debug      *DebugLogger
}

// New creates a new Pacer client. When reasoner credentials are
// configured (or OPENAI_API_KEY is set), adaptive prediction and
// profile updates go through the provider; otherwise every path
// degrades to the deterministic baseline.
func New(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()

	var r Reasoner
	key := cfg.ReasonerAPIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key != "" {
		r = reasoner.NewOpenAI(reasoner.Options{
			BaseURL: cfg.ReasonerURL,
			APIKey:  key,
			Model:   cfg.ReasonerModel,
		})
	}

	return NewWithReasoner(cfg, r)
}

// NewWithReasoner creates a client with an explicit reasoning provider.
// Pass nil to force baseline-only behavior.
func NewWithReasoner(cfg Config, r Reasoner) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug, err := NewDebugLogger(cfg.Debug, cfg.DebugLogPath)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.LocalPath, cfg.Learner)
	if err != nil {
		debug.Close()
		return nil, fmt.Errorf("client: %w", err)
	}

	aggregator, err := NewAggregator(store, r, cfg)
	if err != nil {
		store.Close()
		debug.Close()
		return nil, fmt.Errorf("client: %w", err)
	}
	aggregator.WithDebugLogger(debug)

	return &Client{
		store:      store,
		aggregator: aggregator,
		predictor:  NewPredictor(r, cfg).WithDebugLogger(debug),
		sm2:        NewSM2(),
		scorer:     NewScorer(),
		session:    NewSession(),
		config:     cfg,
		debug:      debug,
	}, nil
}

// RecordEvent captures one study attempt. When enough events
// accumulate, a profile update runs in the background; its outcome
// never affects this call.
func (c *Client) RecordEvent(ctx context.Context, e LearningEvent) error {
	return c.aggregator.RecordEvent(ctx, e)
}

// Grade folds one review outcome into the card's baseline schedule and
// returns the updated record. The card may be referenced by ID or by
// session ref (C1, C2, ...). Grading also appends a learning event so
// the profile sees the attempt.
func (c *Client) Grade(ctx context.Context, params GradeParams) (*LearningRecord, error) {
	cardID := params.CardID
	if id, ok := c.session.Match(cardID); ok {
		cardID = id
	}
	if cardID == "" {
		return nil, ErrEmptyCardID
	}

	now := time.Now().UTC()

	record, err := c.store.GetRecord(cardID)
	if err == ErrRecordNotFound {
		record = &LearningRecord{
			CardID:       cardID,
			EaseFactor:   EaseFactorDefault,
			MasteryLevel: MasteryNew,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	} else if err != nil {
		return nil, err
	}

	quality := QualityFromOutcome(params.ResponseTimeMs, params.Correct, params.HintUsed)
	if params.Quality != nil {
		quality = *params.Quality
	}

	updated := c.sm2.Apply(*record, quality, now)
	if err := c.store.UpsertRecord(&updated); err != nil {
		return nil, err
	}
	c.scorer.ClearCache()

	result := ResultIncorrect
	if params.Correct {
		result = ResultCorrect
	}
	event := LearningEvent{
		CardID:      cardID,
		Timestamp:   now,
		Action:      ActionReview,
		Result:      result,
		Confidence:  1,
		TimeTakenMs: params.ResponseTimeMs,
	}
	if err := c.RecordEvent(ctx, event); err != nil {
		c.debug.LogError("grade_event", err)
	}

	return &updated, nil
}

// Plan computes the adaptive review plan for one card. It never fails:
// provider problems degrade to the deterministic fallback, marked on
// the plan itself.
func (c *Client) Plan(ctx context.Context, cardID string) ReviewPlan {
	if id, ok := c.session.Match(cardID); ok {
		cardID = id
	}

	history, err := c.store.EventsForCard(cardID)
	if err != nil {
		c.debug.LogError("plan_history", err)
	}
	return c.predictor.Plan(ctx, cardID, c.aggregator.Profile(), history)
}

// PlanBatch computes adaptive plans for several cards with one provider
// round trip.
func (c *Client) PlanBatch(ctx context.Context, cardIDs []string) []ReviewPlan {
	items := make([]BatchItem, len(cardIDs))
	for i, id := range cardIDs {
		if resolved, ok := c.session.Match(id); ok {
			id = resolved
		}
		history, err := c.store.EventsForCard(id)
		if err != nil {
			c.debug.LogError("plan_history", err)
		}
		items[i] = BatchItem{CardID: id, History: history}
	}
	return c.predictor.PlanBatch(ctx, items, c.aggregator.Profile())
}

// ApplyPlan persists a plan's schedule back into the card's record. A
// record is created when the card has never been graded.
func (c *Client) ApplyPlan(plan ReviewPlan) error {
	now := time.Now().UTC()

	record, err := c.store.GetRecord(plan.CardID)
	if err == ErrRecordNotFound {
		record = &LearningRecord{
			CardID:       plan.CardID,
			EaseFactor:   EaseFactorDefault,
			MasteryLevel: MasteryNew,
			CreatedAt:    now,
		}
	} else if err != nil {
		return err
	}

	record.NextReviewAt = plan.NextReviewAt
	days := plan.IntervalHours / 24
	if days < 1 && plan.IntervalHours > 0 {
		days = 1
	}
	record.Interval = days
	record.UpdatedAt = now

	if err := c.store.UpsertRecord(record); err != nil {
		return err
	}
	c.scorer.ClearCache()
	return nil
}

// SelectCards assembles a study selection from the candidate pool,
// mixing urgent reviews with new material, and tracks each pick in the
// session for later grading.
func (c *Client) SelectCards(candidates []string, opts SelectOptions) ([]SelectedCard, error) {
	records, err := c.store.Records()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ids := c.scorer.SelectCards(candidates, records, opts, now)

	selection := make([]SelectedCard, len(ids))
	for i, id := range ids {
		record := records[id]
		selection[i] = SelectedCard{
			CardID:     id,
			SessionRef: c.session.Track(id),
			Score:      c.scorer.Score(id, record, now),
			New:        record == nil,
		}
	}
	return selection, nil
}

// Due returns all cards whose next review time has passed, sorted by
// priority score descending.
func (c *Client) Due(now time.Time) ([]ScoredCard, error) {
	records, err := c.store.Records()
	if err != nil {
		return nil, err
	}

	due := make(map[string]*LearningRecord)
	for id, r := range records {
		if !r.NextReviewAt.After(now) {
			due[id] = r
		}
	}
	scored := c.scorer.ScoreAll(due, now)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}

// Record returns the scheduling record for one card.
func (c *Client) Record(cardID string) (*LearningRecord, error) {
	if id, ok := c.session.Match(cardID); ok {
		cardID = id
	}
	return c.store.GetRecord(cardID)
}

// Records returns all scheduling records keyed by card ID.
func (c *Client) Records() (map[string]*LearningRecord, error) {
	return c.store.Records()
}

// Profile returns a consistent snapshot of the learner profile.
func (c *Client) Profile() *LearnerProfile {
	return c.aggregator.Profile()
}

// UpdateProfile forces a synchronous profile update cycle regardless of
// the pending-buffer threshold trigger.
func (c *Client) UpdateProfile(ctx context.Context) error {
	return c.aggregator.UpdateNow(ctx)
}

// Session returns the session tracker for ref resolution.
func (c *Client) Session() *Session {
	return c.session
}

// Stats returns store statistics.
func (c *Client) Stats() (*StoreStats, error) {
	return c.store.Stats()
}

// HealthCheck returns the health status of the client.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:            true,
		StoreOK:            true,
		ReasonerConfigured: c.predictor.reasoner != nil,
	}

	if _, err := c.store.Stats(); err != nil {
		status.StoreOK = false
		status.Healthy = false
		status.Error = err.Error()
	}
	return status
}

// Close closes the client and its store.
func (c *Client) Close() error {
	err := c.store.Close()
	if cerr := c.debug.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
