package pacer

import (
	"math"
	"time"
)

// Canonical forgetting-curve checkpoints: the elapsed times at which a
// review is most valuable. Earlier checkpoints matter more, so proximity
// bonuses decrease with checkpoint index.
var curveCheckpoints = []time.Duration{
	20 * time.Minute,
	1 * time.Hour,
	9 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	6 * 24 * time.Hour,
	31 * 24 * time.Hour,
}

// curveProximityTolerance is the relative window around a checkpoint
// within which a review counts as "on the curve".
const curveProximityTolerance = 0.10

// CurveCheckpoints returns the canonical forgetting-curve checkpoints.
func CurveCheckpoints() []time.Duration {
	out := make([]time.Duration, len(curveCheckpoints))
	copy(out, curveCheckpoints)
	return out
}

// checkpointBonus returns the score bonus for reviewing near a
// forgetting-curve checkpoint. Only the first matching checkpoint
// counts. Returns 0 when elapsed is not within ±10% of any checkpoint.
func checkpointBonus(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	for i, cp := range curveCheckpoints {
		lo := time.Duration(float64(cp) * (1 - curveProximityTolerance))
		hi := time.Duration(float64(cp) * (1 + curveProximityTolerance))
		if elapsed >= lo && elapsed <= hi {
			// Earlier checkpoints score higher: 25, 22, 19, ...
			return 25 - 3*float64(i)
		}
	}
	return 0
}

// DefaultForgettingCurve returns the neutral five-point retention curve
// used for new profiles. Points follow an exponential decay sampled at
// the first five checkpoints and are strictly descending.
func DefaultForgettingCurve() [5]float64 {
	var curve [5]float64
	for i := 0; i < 5; i++ {
		hours := curveCheckpoints[i].Hours()
		curve[i] = EstimateRetention(hours, 24)
	}
	return curve
}

// EstimateRetention returns the modeled probability of recall after the
// given elapsed hours, for a memory with the given stability expressed
// as a half-life-like constant in hours. Standard exponential decay.
func EstimateRetention(elapsedHours, stabilityHours float64) float64 {
	if elapsedHours <= 0 {
		return 1
	}
	if stabilityHours <= 0 {
		stabilityHours = 1
	}
	return math.Exp(-elapsedHours / stabilityHours)
}

// normalizeCurve forces a candidate five-point curve into [0,1] and
// strictly non-ascending order. Used when merging provider output so an
// invalid curve cannot violate the descending invariant.
func normalizeCurve(curve [5]float64) [5]float64 {
	for i := range curve {
		curve[i] = clampUnit(curve[i])
		if i > 0 && curve[i] > curve[i-1] {
			curve[i] = curve[i-1]
		}
	}
	return curve
}
