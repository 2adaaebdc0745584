package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperengineering/pacer"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <card-id>...",
	Short: "Predict the next review interval for cards",
	Long: `Predict when each card should next be reviewed.

With reasoner credentials configured the prediction adapts to the
learner profile; otherwise a deterministic baseline is used. Multiple
cards share a single provider round trip.

Example:
  pacer plan apple
  pacer plan apple banana cherry --apply`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

var planApply bool

func init() {
	planCmd.Flags().BoolVar(&planApply, "apply", false, "Persist the planned schedule into each card's record")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	var plans []pacer.ReviewPlan
	err = runWithSpinner(os.Stderr, "Planning reviews", func() error {
		if len(args) == 1 {
			plans = []pacer.ReviewPlan{client.Plan(context.Background(), args[0])}
		} else {
			plans = client.PlanBatch(context.Background(), args)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if planApply {
		for _, plan := range plans {
			if err := client.ApplyPlan(plan); err != nil {
				return fmt.Errorf("apply plan for %s: %w", plan.CardID, err)
			}
		}
		if !outputJSON {
			printSuccess(cmd.OutOrStdout(), "Applied %d plans", len(plans))
		}
	}

	return outputPlans(cmd, plans)
}
