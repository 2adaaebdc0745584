package pacer

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// NewCardScore is the fixed priority for cards with no record yet.
const NewCardScore = 50.0

// DefaultScoreCacheTTL is how long computed scores stay valid.
const DefaultScoreCacheTTL = 5 * time.Minute

// DefaultMaxReviewRatio bounds the share of a selection filled from
// scored review candidates.
const DefaultMaxReviewRatio = 0.7

// Scorer ranks a learner's cards for a session by urgency. Scoring is a
// pure additive function over the record snapshot; only the selection
// shuffle and new-card fill use the rand source. The scorer is
// constructed per client, never shared module state, so concurrent
// learners do not contend on one cache.
type Scorer struct {
	cache *scoreCache
	rng   *rand.Rand
}

// NewScorer creates a scorer with a time-seeded rand source and the
// default cache TTL.
func NewScorer() *Scorer {
	return NewScorerWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewScorerWithRand creates a scorer using the given rand source for
// selection shuffling. Pass a fixed-seed source for deterministic tests.
func NewScorerWithRand(rng *rand.Rand) *Scorer {
	return &Scorer{
		cache: newScoreCache(DefaultScoreCacheTTL),
		rng:   rng,
	}
}

// Score computes the priority of a single card. A nil record means the
// card has never been studied and scores the fixed NewCardScore. All
// other rules are independent and additive.
func (s *Scorer) Score(cardID string, record *LearningRecord, now time.Time) float64 {
	if record == nil {
		return NewCardScore
	}

	if score, ok := s.cache.get(cardID, now); ok {
		return score
	}

	score := scoreRecord(record, now)
	s.cache.put(cardID, score, now)
	return score
}

// scoreRecord is the uncached additive scoring function.
func scoreRecord(r *LearningRecord, now time.Time) float64 {
	var score float64

	// Urgency: how far past due the card is.
	if !r.NextReviewAt.After(now) {
		overdue := now.Sub(r.NextReviewAt)
		switch {
		case overdue > 48*time.Hour:
			score += 100
		case overdue > 24*time.Hour:
			score += 80
		case overdue > 12*time.Hour:
			score += 60
		default:
			score += 40
		}
	} else if r.NextReviewAt.Sub(now) <= 24*time.Hour {
		score += 30
	}

	// Historical accuracy.
	attempts := r.CorrectCount + r.WrongCount
	if attempts > 0 {
		acc := r.Accuracy()
		switch {
		case acc < 0.4:
			score += 50
		case acc < 0.6:
			score += 30
		case acc < 0.8:
			score += 10
		}
	}

	// Persistently wrong cards.
	if attempts >= 3 && r.WrongCount > r.CorrectCount {
		score += 35
	}

	// Short intervals mean the card is still being established.
	switch {
	case r.Interval < 1:
		score += 20
	case r.Interval < 7:
		score += 15
	case r.Interval < 31:
		score += 10
	}

	// Mastery staging.
	switch r.MasteryLevel {
	case MasteryNew, MasteryLearning:
		score += 30
	case MasteryReviewing:
		score += 15
	}

	// Forgetting-curve proximity: reviewing near a checkpoint is worth
	// more, earlier checkpoints most of all.
	if !r.LastReviewedAt.IsZero() {
		score += checkpointBonus(now.Sub(r.LastReviewedAt))
	}

	// Few attempts with shaky accuracy.
	if attempts > 0 && attempts < 3 && r.Accuracy() < 0.7 {
		score += 15
	}

	// Low ease factor marks a hard card.
	switch {
	case r.EaseFactor < 1.5:
		score += 20
	case r.EaseFactor < 2.0:
		score += 10
	}

	return score
}

// ScoreAll scores every card that has a record, sorted by score
// descending.
func (s *Scorer) ScoreAll(records map[string]*LearningRecord, now time.Time) []ScoredCard {
	scored := make([]ScoredCard, 0, len(records))
	for id, r := range records {
		scored = append(scored, ScoredCard{CardID: id, Score: s.Score(id, r, now)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CardID < scored[j].CardID
	})
	return scored
}

// SelectCards assembles an ordered session selection of at most
// opts.Count cards. Scored review candidates fill up to
// floor(Count × MaxReviewRatio) slots; never-studied cards fill the
// remainder when opts.IncludeNew is set, then leftover review
// candidates top the list back up. The final order is lightly
// shuffled: high scorers stay likely near the front, but exact order is
// not a contract.
func (s *Scorer) SelectCards(cards []string, records map[string]*LearningRecord, opts SelectOptions, now time.Time) []string {
	if opts.Count <= 0 {
		return nil
	}
	ratio := opts.MaxReviewRatio
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultMaxReviewRatio
	}

	scored := s.ScoreAll(records, now)

	reviewMax := int(float64(opts.Count) * ratio)
	if reviewMax > len(scored) {
		reviewMax = len(scored)
	}

	selected := make([]string, 0, opts.Count)
	picked := make(map[string]bool, opts.Count)
	scores := make(map[string]float64, opts.Count)
	for _, sc := range scored[:reviewMax] {
		selected = append(selected, sc.CardID)
		picked[sc.CardID] = true
		scores[sc.CardID] = sc.Score
	}

	// Fill remaining slots with uniformly-random never-studied cards.
	if opts.IncludeNew && len(selected) < opts.Count {
		fresh := make([]string, 0, len(cards))
		for _, id := range cards {
			if _, studied := records[id]; !studied && !picked[id] {
				fresh = append(fresh, id)
			}
		}
		s.rng.Shuffle(len(fresh), func(i, j int) {
			fresh[i], fresh[j] = fresh[j], fresh[i]
		})
		for _, id := range fresh {
			if len(selected) >= opts.Count {
				break
			}
			selected = append(selected, id)
			picked[id] = true
			scores[id] = NewCardScore
		}
	}

	// Still short: continue down the sorted review list.
	for _, sc := range scored[reviewMax:] {
		if len(selected) >= opts.Count {
			break
		}
		if picked[sc.CardID] {
			continue
		}
		selected = append(selected, sc.CardID)
		picked[sc.CardID] = true
		scores[sc.CardID] = sc.Score
	}

	s.lightShuffle(selected, scores)

	if len(selected) > opts.Count {
		selected = selected[:opts.Count]
	}
	return selected
}

// lightShuffle reorders the selection by score perturbed with jitter
// proportional to the score span. Scores influence the final order
// without strictly determining it.
func (s *Scorer) lightShuffle(ids []string, scores map[string]float64) {
	if len(ids) < 2 {
		return
	}

	lo, hi := scores[ids[0]], scores[ids[0]]
	for _, id := range ids[1:] {
		if scores[id] < lo {
			lo = scores[id]
		}
		if scores[id] > hi {
			hi = scores[id]
		}
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	jittered := make(map[string]float64, len(ids))
	for _, id := range ids {
		jittered[id] = scores[id] + (s.rng.Float64()-0.5)*0.3*span
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return jittered[ids[i]] > jittered[ids[j]]
	})
}

// ClearCache discards all cached scores immediately.
func (s *Scorer) ClearCache() {
	s.cache.clear()
}

// scoreCache is a TTL cache over computed scores. It is a pure
// performance optimization: entries expire together (full reset, no
// per-card invalidation) so a stale window never changes which cards
// are selectable, only whether their scores are recomputed.
type scoreCache struct {
	mu      sync.Mutex
	scores  map[string]float64
	expires time.Time
	ttl     time.Duration
}

func newScoreCache(ttl time.Duration) *scoreCache {
	return &scoreCache{
		scores: make(map[string]float64),
		ttl:    ttl,
	}
}

func (c *scoreCache) get(cardID string, now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.After(c.expires) {
		c.scores = make(map[string]float64)
		return 0, false
	}
	score, ok := c.scores[cardID]
	return score, ok
}

func (c *scoreCache) put(cardID string, score float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.scores) == 0 {
		c.expires = now.Add(c.ttl)
	}
	c.scores[cardID] = score
}

func (c *scoreCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scores = make(map[string]float64)
	c.expires = time.Time{}
}
