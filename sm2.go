package pacer

import (
	"math"
	"math/rand"
	"time"
)

// SM2 implements the SuperMemo-2 style baseline scheduling algorithm.
// It is a pure computation over (ease factor, interval, quality); the
// only nondeterminism is the review-time jitter, which sits behind a
// seedable rand source so tests stay deterministic.
type SM2 struct {
	unit time.Duration
	rng  *rand.Rand
}

// NewSM2 creates a baseline scheduler with a day-sized interval unit and
// a time-seeded jitter source.
func NewSM2() *SM2 {
	return NewSM2WithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSM2WithRand creates a baseline scheduler using the given rand
// source for jitter. Pass a fixed-seed source for deterministic tests.
func NewSM2WithRand(rng *rand.Rand) *SM2 {
	return &SM2{
		unit: 24 * time.Hour,
		rng:  rng,
	}
}

// ComputeNextInterval applies the ease-factor/interval update for a
// single review. quality is clamped into [0,5]:
//
//	0-2  failed recall
//	3    recalled with difficulty
//	4    recalled with minor hesitation
//	5    perfect recall
//
// The returned ease factor never drops below EaseFactorFloor. A failed
// recall resets the interval to 1 and additionally subtracts
// ForgotPenalty from the pre-update ease factor, which is harsher than
// the formula alone. Successful recall grows the interval through the
// 0→1→3→7 stages, then by round(interval × newEF); quality 3 shrinks
// the result by HardRecallShrink (minimum 1).
func (s *SM2) ComputeNextInterval(easeFactor float64, interval, quality int) (newEF float64, newInterval int) {
	if quality < 0 {
		quality = 0
	}
	if quality > 5 {
		quality = 5
	}

	q := float64(quality)
	newEF = easeFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if quality < 3 {
		// Forgot: reset and penalize from the pre-update value.
		newEF = easeFactor - ForgotPenalty
		if newEF < EaseFactorFloor {
			newEF = EaseFactorFloor
		}
		return newEF, 1
	}

	if newEF < EaseFactorFloor {
		newEF = EaseFactorFloor
	}

	switch interval {
	case 0:
		newInterval = 1
	case 1:
		newInterval = 3
	case 3:
		newInterval = 7
	default:
		newInterval = int(math.Round(float64(interval) * newEF))
	}

	if quality == 3 {
		newInterval = int(float64(newInterval) * HardRecallShrink)
		if newInterval < 1 {
			newInterval = 1
		}
	}

	return newEF, newInterval
}

// NextReviewTime returns when the card should next be shown:
// now + interval units, jittered uniformly in [0.9, 1.1] so reviews do
// not cluster on the same calendar day.
func (s *SM2) NextReviewTime(now time.Time, interval int) time.Time {
	jitter := 0.9 + 0.2*s.rng.Float64()
	delta := time.Duration(float64(interval) * float64(s.unit) * jitter)
	return now.Add(delta)
}

// QualityFromOutcome maps a review outcome to a discrete quality score.
// This is the only place response latency influences quality:
//
//	incorrect, no hint  → 0
//	incorrect with hint → 1
//	correct < 2s        → 5
//	correct < 5s        → 4
//	correct otherwise   → 3
func QualityFromOutcome(responseTimeMs int, correct, hintUsed bool) int {
	if !correct {
		if hintUsed {
			return 1
		}
		return 0
	}
	switch {
	case responseTimeMs < 2000:
		return 5
	case responseTimeMs < 5000:
		return 4
	default:
		return 3
	}
}

// Apply runs one review through the baseline algorithm and returns the
// updated record. The input record is not mutated.
func (s *SM2) Apply(record LearningRecord, quality int, now time.Time) LearningRecord {
	ef, interval := s.ComputeNextInterval(record.EaseFactor, record.Interval, quality)

	record.EaseFactor = ef
	record.Interval = interval
	record.LastReviewedAt = now
	record.NextReviewAt = s.NextReviewTime(now, interval)
	record.ReviewCount++
	if quality >= 3 {
		record.CorrectCount++
	} else {
		record.WrongCount++
	}
	record.MasteryLevel = masteryFor(&record)
	record.UpdatedAt = now

	return record
}

// masteryFor derives the mastery level from the record's counters and
// current interval.
func masteryFor(r *LearningRecord) MasteryLevel {
	switch {
	case r.ReviewCount == 0:
		return MasteryNew
	case r.ReviewCount >= 8 && r.Interval >= 30 && r.Accuracy() >= 0.9:
		return MasteryMastered
	case r.ReviewCount >= 5 && r.Interval >= 7 && r.Accuracy() >= 0.8:
		return MasteryFamiliar
	case r.ReviewCount >= 3:
		return MasteryReviewing
	default:
		return MasteryLearning
	}
}
