package pacer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/pacer"
)

// fakeReasoner returns canned responses for testing.
type fakeReasoner struct {
	response string
	err      error
	calls    int
	lastSys  string
	lastUser string
}

func (f *fakeReasoner) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSys = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testConfig(t *testing.T) pacer.Config {
	t.Helper()
	cfg := pacer.DefaultConfig()
	cfg.Learner = "test"
	cfg.LocalPath = t.TempDir() + "/pacer.db"
	return cfg
}

func history(results ...pacer.EventResult) []pacer.LearningEvent {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := make([]pacer.LearningEvent, len(results))
	for i, r := range results {
		events[i] = pacer.LearningEvent{
			ID:          "evt",
			CardID:      "apple",
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			Action:      pacer.ActionReview,
			Result:      r,
			Confidence:  1,
			TimeTakenMs: 2000,
		}
	}
	return events
}

func TestPredictor_Plan_ProviderResponse(t *testing.T) {
	r := &fakeReasoner{response: `{"interval": 48, "confidence": 0.85, "difficulty": "medium", "reasoning": "steady recall", "suggested_action": "review"}`}
	p := pacer.NewPredictor(r, testConfig(t))

	plan := p.Plan(context.Background(), "apple", pacer.NewProfile("test"), history(pacer.ResultCorrect))

	if plan.Fallback {
		t.Fatalf("plan took fallback path: %s", plan.Reasoning)
	}
	if plan.IntervalHours != 48 {
		t.Errorf("IntervalHours = %d, want 48", plan.IntervalHours)
	}
	if plan.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", plan.Confidence)
	}
	if plan.Difficulty != pacer.DifficultyMedium {
		t.Errorf("Difficulty = %s, want medium", plan.Difficulty)
	}
	if plan.CardID != "apple" {
		t.Errorf("CardID = %s, want apple", plan.CardID)
	}
}

func TestPredictor_Plan_ExtractsFencedJSON(t *testing.T) {
	r := &fakeReasoner{response: "Here is the schedule:\n```json\n{\"interval\": 24, \"confidence\": 0.7, \"difficulty\": \"easy\"}\n```\nGood luck!"}
	p := pacer.NewPredictor(r, testConfig(t))

	plan := p.Plan(context.Background(), "apple", pacer.NewProfile("test"), nil)
	if plan.Fallback {
		t.Fatalf("fenced JSON should parse, got fallback: %s", plan.Reasoning)
	}
	if plan.IntervalHours != 24 {
		t.Errorf("IntervalHours = %d, want 24", plan.IntervalHours)
	}
}

func TestPredictor_Plan_ClampsInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		want     int
	}{
		{"above max", "999999", pacer.DefaultMaxIntervalHours},
		{"below min", "-5", pacer.DefaultMinIntervalHours},
		{"zero", "0", pacer.DefaultMinIntervalHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReasoner{response: `{"interval": ` + tt.interval + `, "confidence": 0.5, "difficulty": "medium"}`}
			p := pacer.NewPredictor(r, testConfig(t))

			plan := p.Plan(context.Background(), "apple", pacer.NewProfile("test"), nil)
			if plan.IntervalHours != tt.want {
				t.Errorf("IntervalHours = %d, want %d", plan.IntervalHours, tt.want)
			}
		})
	}
}

func TestPredictor_Plan_CoercesInvalidFields(t *testing.T) {
	r := &fakeReasoner{response: `{"interval": 24, "confidence": 7.5, "difficulty": "IMPOSSIBLE"}`}
	p := pacer.NewPredictor(r, testConfig(t))

	plan := p.Plan(context.Background(), "apple", pacer.NewProfile("test"), nil)
	if plan.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", plan.Confidence)
	}
	if plan.Difficulty != pacer.DifficultyMedium {
		t.Errorf("Difficulty = %s, want medium default", plan.Difficulty)
	}
	if plan.Reasoning == "" || plan.SuggestedAction == "" {
		t.Error("absent text fields should get defaults")
	}
}

func TestPredictor_Plan_FallbackPaths(t *testing.T) {
	profile := pacer.NewProfile("test")

	tests := []struct {
		name     string
		reasoner pacer.Reasoner
		profile  *pacer.LearnerProfile
		cause    string
	}{
		{"nil reasoner", nil, profile, "adaptive prediction disabled"},
		{"nil profile", &fakeReasoner{response: "{}"}, nil, "no learner profile"},
		{"provider error", &fakeReasoner{err: errors.New("boom")}, profile, "provider error"},
		{"garbage response", &fakeReasoner{response: "not json at all"}, profile, "unparseable provider response"},
		{"missing interval", &fakeReasoner{response: `{"confidence": 0.9}`}, profile, "missing interval in provider response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pacer.NewPredictor(tt.reasoner, testConfig(t))
			plan := p.Plan(context.Background(), "apple", tt.profile, history(pacer.ResultCorrect))

			if !plan.Fallback {
				t.Fatal("expected fallback plan")
			}
			if !strings.Contains(plan.Reasoning, tt.cause) {
				t.Errorf("Reasoning = %q, want cause %q", plan.Reasoning, tt.cause)
			}
			if plan.Confidence != pacer.FallbackConfidence {
				t.Errorf("Confidence = %v, want %v", plan.Confidence, pacer.FallbackConfidence)
			}
		})
	}
}

func TestPredictor_Plan_DisabledAdaptive(t *testing.T) {
	r := &fakeReasoner{response: `{"interval": 48}`}
	cfg := testConfig(t)
	cfg.EnableAIPrediction = false

	p := pacer.NewPredictor(r, cfg)
	plan := p.Plan(context.Background(), "apple", pacer.NewProfile("test"), nil)

	if !plan.Fallback {
		t.Fatal("disabled adaptive mode should take fallback path")
	}
	if r.calls != 0 {
		t.Errorf("provider called %d times with adaptive disabled, want 0", r.calls)
	}
}

func TestPredictor_FallbackIntervalLadder(t *testing.T) {
	p := pacer.NewPredictor(nil, testConfig(t))

	tests := []struct {
		name      string
		history   []pacer.LearningEvent
		wantHours int
	}{
		{"no history", nil, 24},
		{"recent incorrect", history(pacer.ResultIncorrect), 12},
		{"three correct", history(pacer.ResultCorrect, pacer.ResultCorrect, pacer.ResultCorrect), 48},
		{"four correct", history(pacer.ResultCorrect, pacer.ResultCorrect, pacer.ResultCorrect, pacer.ResultCorrect), 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.Plan(context.Background(), "apple", nil, tt.history)
			if plan.IntervalHours != tt.wantHours {
				t.Errorf("IntervalHours = %d, want %d", plan.IntervalHours, tt.wantHours)
			}
		})
	}
}

func TestPredictor_FallbackDifficulty(t *testing.T) {
	p := pacer.NewPredictor(nil, testConfig(t))

	easy := p.Plan(context.Background(), "a", nil, history(pacer.ResultCorrect, pacer.ResultCorrect, pacer.ResultCorrect))
	if easy.Difficulty != pacer.DifficultyEasy {
		t.Errorf("3 correct difficulty = %s, want easy", easy.Difficulty)
	}

	medium := p.Plan(context.Background(), "b", nil, history(pacer.ResultCorrect))
	if medium.Difficulty != pacer.DifficultyMedium {
		t.Errorf("1 correct difficulty = %s, want medium", medium.Difficulty)
	}

	hard := p.Plan(context.Background(), "c", nil, history(pacer.ResultIncorrect))
	if hard.Difficulty != pacer.DifficultyHard {
		t.Errorf("all wrong difficulty = %s, want hard", hard.Difficulty)
	}
}

func TestPredictor_PlanBatch_MixedResults(t *testing.T) {
	r := &fakeReasoner{response: `[
		{"card_id": "apple", "interval": 48, "confidence": 0.9, "difficulty": "easy"},
		{"card_id": "cherry", "interval": 12, "confidence": 0.6, "difficulty": "hard"}
	]`}
	p := pacer.NewPredictor(r, testConfig(t))

	items := []pacer.BatchItem{
		{CardID: "apple"},
		{CardID: "banana"},
		{CardID: "cherry"},
	}
	plans := p.PlanBatch(context.Background(), items, pacer.NewProfile("test"))

	if len(plans) != 3 {
		t.Fatalf("len(plans) = %d, want 3", len(plans))
	}
	if plans[0].Fallback || plans[0].IntervalHours != 48 {
		t.Errorf("apple plan = %+v, want provider result 48h", plans[0])
	}
	if !plans[1].Fallback || !strings.Contains(plans[1].Reasoning, "missing batch result") {
		t.Errorf("banana should fall back: %+v", plans[1])
	}
	if plans[2].Fallback || plans[2].IntervalHours != 12 {
		t.Errorf("cherry plan = %+v, want provider result 12h", plans[2])
	}
	if r.calls != 1 {
		t.Errorf("provider calls = %d, want 1 for whole batch", r.calls)
	}
}

func TestPredictor_PlanBatch_UnparseableResponse(t *testing.T) {
	r := &fakeReasoner{response: "definitely not JSON"}
	p := pacer.NewPredictor(r, testConfig(t))

	plans := p.PlanBatch(context.Background(), []pacer.BatchItem{{CardID: "apple"}}, pacer.NewProfile("test"))
	if len(plans) != 1 || !plans[0].Fallback {
		t.Fatalf("unparseable batch should fall back: %+v", plans)
	}
}

func TestPredictor_PlanBatch_Empty(t *testing.T) {
	r := &fakeReasoner{response: "[]"}
	p := pacer.NewPredictor(r, testConfig(t))

	plans := p.PlanBatch(context.Background(), nil, pacer.NewProfile("test"))
	if len(plans) != 0 {
		t.Errorf("len(plans) = %d, want 0", len(plans))
	}
	if r.calls != 0 {
		t.Errorf("provider calls = %d, want 0 for empty batch", r.calls)
	}
}

func TestPredictor_Plan_NextReviewAtMatchesInterval(t *testing.T) {
	r := &fakeReasoner{response: `{"interval": 36, "confidence": 0.8, "difficulty": "medium"}`}
	p := pacer.NewPredictor(r, testConfig(t))

	before := time.Now().UTC()
	plan := p.Plan(context.Background(), "apple", pacer.NewProfile("test"), nil)
	after := time.Now().UTC()

	lo := before.Add(36 * time.Hour)
	hi := after.Add(36 * time.Hour)
	if plan.NextReviewAt.Before(lo) || plan.NextReviewAt.After(hi) {
		t.Errorf("NextReviewAt = %v, want within [%v, %v]", plan.NextReviewAt, lo, hi)
	}
}
