package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/pacer"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <card-id>",
	Short: "Record a raw learning event",
	Long: `Record one study attempt into the profile pipeline.

Events accumulate in a buffer; once enough arrive, the learner profile
updates in the background.

Example:
  pacer record apple --action quiz --result correct --time-ms 2100
  pacer record banana --action learn --result partial --confidence 0.4`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

var (
	recordAction     string
	recordResult     string
	recordConfidence float64
	recordTimeMs     int
)

func init() {
	recordCmd.Flags().StringVarP(&recordAction, "action", "a", "review", "Attempt kind: learn, review, or quiz")
	recordCmd.Flags().StringVarP(&recordResult, "result", "r", "", "Outcome: correct, incorrect, or partial (required)")
	recordCmd.Flags().Float64Var(&recordConfidence, "confidence", 1.0, "Self-reported confidence (0.0-1.0)")
	recordCmd.Flags().IntVar(&recordTimeMs, "time-ms", 0, "Response latency in milliseconds")

	recordCmd.MarkFlagRequired("result")

	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	event := pacer.LearningEvent{
		CardID:      args[0],
		Action:      pacer.EventAction(recordAction),
		Result:      pacer.EventResult(recordResult),
		Confidence:  recordConfidence,
		TimeTakenMs: recordTimeMs,
	}

	if err := client.RecordEvent(context.Background(), event); err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, event)
	}
	printSuccess(cmd.OutOrStdout(), "Recorded %s/%s for %s", recordAction, recordResult, args[0])
	return nil
}
