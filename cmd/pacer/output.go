package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperengineering/pacer"
	"github.com/spf13/cobra"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to stderr, ensuring no API keys are leaked.
func outputError(w io.Writer, err error) {
	msg := scrubSensitiveData(err.Error())
	fmt.Fprintf(w, "Error: %s\n", msg)
}

// scrubSensitiveData removes potential API keys from error messages.
// The library already avoids including keys, but this is defense in depth.
func scrubSensitiveData(msg string) string {
	if cfgAPIKey != "" && strings.Contains(msg, cfgAPIKey) {
		msg = strings.ReplaceAll(msg, cfgAPIKey, "[REDACTED]")
	}
	return msg
}

// outputRecord prints a scheduling record in the configured format.
func outputRecord(cmd *cobra.Command, record *pacer.LearningRecord) error {
	if outputJSON {
		return outputAsJSON(cmd, record)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Card: %s\n", record.CardID)
	fmt.Fprintf(out, "  Ease factor: %.2f\n", record.EaseFactor)
	fmt.Fprintf(out, "  Interval: %d days\n", record.Interval)
	fmt.Fprintf(out, "  Next review: %s\n", record.NextReviewAt.Format(time.RFC3339))
	fmt.Fprintf(out, "  Mastery: %s\n", record.MasteryLevel)
	fmt.Fprintf(out, "  Reviews: %d (%d correct, %d wrong)\n",
		record.ReviewCount, record.CorrectCount, record.WrongCount)
	return nil
}

// outputSelection prints a session selection in the configured format.
func outputSelection(cmd *cobra.Command, selection []pacer.SelectedCard) error {
	if outputJSON {
		return outputAsJSON(cmd, selection)
	}

	out := cmd.OutOrStdout()
	if len(selection) == 0 {
		fmt.Fprintln(out, "No cards to study right now.")
		return nil
	}

	fmt.Fprintf(out, "Study these %d cards:\n\n", len(selection))
	for _, card := range selection {
		marker := ""
		if card.New {
			marker = " (new)"
		}
		fmt.Fprintf(out, "[%s] %s%s\n", card.SessionRef, card.CardID, marker)
		fmt.Fprintf(out, "    Priority: %.0f\n", card.Score)
	}
	return nil
}

// outputPlans prints review plans in the configured format.
func outputPlans(cmd *cobra.Command, plans []pacer.ReviewPlan) error {
	if outputJSON {
		return outputAsJSON(cmd, plans)
	}

	out := cmd.OutOrStdout()
	for i, plan := range plans {
		source := "adaptive"
		if plan.Fallback {
			source = "baseline"
		}
		fmt.Fprintf(out, "%s\n", plan.CardID)
		fmt.Fprintf(out, "  Next review: %s (in %s)\n",
			plan.NextReviewAt.Format(time.RFC3339), formatHours(plan.IntervalHours))
		fmt.Fprintf(out, "  Source: %s, difficulty: %s, confidence: %.2f\n",
			source, plan.Difficulty, plan.Confidence)
		fmt.Fprintf(out, "  %s\n", plan.Reasoning)
		if i < len(plans)-1 {
			fmt.Fprintln(out)
		}
	}
	return nil
}

// outputDue prints due cards in the configured format.
func outputDue(cmd *cobra.Command, due []pacer.ScoredCard) error {
	if outputJSON {
		return outputAsJSON(cmd, due)
	}

	out := cmd.OutOrStdout()
	if len(due) == 0 {
		fmt.Fprintln(out, "Nothing due. Come back later.")
		return nil
	}

	fmt.Fprintf(out, "%d cards due:\n", len(due))
	for _, card := range due {
		fmt.Fprintf(out, "  %-30s %.0f\n", card.CardID, card.Score)
	}
	return nil
}

// outputProfile prints the learner profile in the configured format.
func outputProfile(cmd *cobra.Command, p *pacer.LearnerProfile) error {
	if outputJSON {
		return outputAsJSON(cmd, p)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Learner: %s (profile version %d)\n\n", p.LearnerID, p.Version)

	fmt.Fprintln(out, "Cognitive style")
	fmt.Fprintf(out, "  visual %.2f / verbal %.2f / contextual %.2f\n",
		p.CognitiveStyle.Visual, p.CognitiveStyle.Verbal, p.CognitiveStyle.Contextual)

	fmt.Fprintln(out, "Memory pattern")
	fmt.Fprintf(out, "  short-term %.2f, long-term %.2f, stability %.2f\n",
		p.MemoryPattern.ShortTermRetention, p.MemoryPattern.LongTermRetention, p.MemoryPattern.Stability)
	fmt.Fprintf(out, "  optimal interval: %dh\n", p.MemoryPattern.OptimalIntervalH)

	fmt.Fprintln(out, "Behavior")
	fmt.Fprintf(out, "  preferred hour %d, sessions ~%d min, mean response %.0f ms, consistency %.2f\n",
		p.Behavior.PreferredHour, p.Behavior.SessionMinutes, p.Behavior.MeanResponseMs, p.Behavior.ConsistencyScore)
	if len(p.Behavior.ErrorPatterns) > 0 {
		fmt.Fprintf(out, "  error patterns: %s\n", strings.Join(p.Behavior.ErrorPatterns, ", "))
	}

	fmt.Fprintln(out, "Knowledge")
	fmt.Fprintf(out, "  vocabulary: %d items\n", p.Knowledge.VocabularySize)
	if len(p.Knowledge.WeakTopics) > 0 {
		fmt.Fprintf(out, "  weak topics: %s\n", strings.Join(p.Knowledge.WeakTopics, ", "))
	}
	if len(p.Knowledge.MasteredTopics) > 0 {
		fmt.Fprintf(out, "  mastered topics: %s\n", strings.Join(p.Knowledge.MasteredTopics, ", "))
	}

	fmt.Fprintln(out, "Emotional state")
	fmt.Fprintf(out, "  confidence %.2f, motivation %.2f, frustration %.2f, flow %.2f\n",
		p.Emotional.Confidence, p.Emotional.Motivation, p.Emotional.Frustration, p.Emotional.FlowScore)

	if !p.LastUpdated.IsZero() {
		fmt.Fprintf(out, "\nLast updated: %s\n", p.LastUpdated.Format(time.RFC3339))
	}
	return nil
}

func formatHours(hours int) string {
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	days := hours / 24
	rem := hours % 24
	if rem == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, rem)
}
