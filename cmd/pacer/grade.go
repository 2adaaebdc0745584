package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/pacer"
	"github.com/spf13/cobra"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <card-id>",
	Short: "Grade a review outcome",
	Long: `Fold one review outcome into a card's schedule.

The ease factor, interval, and next review time update per the
baseline algorithm; the attempt also feeds the learner profile.

Example:
  pacer grade apple --correct --time-ms 1800
  pacer grade banana --wrong --hint`,
	Args: cobra.ExactArgs(1),
	RunE: runGrade,
}

var (
	gradeCorrect bool
	gradeWrong   bool
	gradeHint    bool
	gradeTimeMs  int
)

func init() {
	gradeCmd.Flags().BoolVar(&gradeCorrect, "correct", false, "The card was recalled correctly")
	gradeCmd.Flags().BoolVar(&gradeWrong, "wrong", false, "The card was not recalled")
	gradeCmd.Flags().BoolVar(&gradeHint, "hint", false, "A hint was needed")
	gradeCmd.Flags().IntVar(&gradeTimeMs, "time-ms", 0, "Response latency in milliseconds")
	gradeCmd.MarkFlagsOneRequired("correct", "wrong")
	gradeCmd.MarkFlagsMutuallyExclusive("correct", "wrong")

	rootCmd.AddCommand(gradeCmd)
}

func runGrade(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	record, err := client.Grade(context.Background(), pacer.GradeParams{
		CardID:         args[0],
		Correct:        gradeCorrect,
		HintUsed:       gradeHint,
		ResponseTimeMs: gradeTimeMs,
	})
	if err != nil {
		return fmt.Errorf("grade card: %w", err)
	}

	if !outputJSON {
		printSuccess(cmd.OutOrStdout(), "Graded %s", record.CardID)
	}
	return outputRecord(cmd, record)
}
