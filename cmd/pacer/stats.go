package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	Long: `Display statistics about the learner's local store.

Example:
  pacer stats
  pacer stats --health`,
	RunE: runStats,
}

var statsHealth bool

func init() {
	statsCmd.Flags().BoolVar(&statsHealth, "health", false, "Include health check")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	stats, err := client.Stats()
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if outputJSON && !statsHealth {
		return outputAsJSON(cmd, stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Local Store Statistics")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "Learner:         %s\n", stats.LearnerID)
	fmt.Fprintf(out, "Records:         %d\n", stats.RecordCount)
	fmt.Fprintf(out, "Pending events:  %d\n", stats.PendingEvents)
	fmt.Fprintf(out, "Profile version: %d\n", stats.ProfileVersion)
	fmt.Fprintf(out, "Schema version:  %s\n", stats.SchemaVersion)

	if !stats.LastUpdate.IsZero() {
		fmt.Fprintf(out, "Last update:     %s (%s ago)\n",
			stats.LastUpdate.Format(time.RFC3339),
			time.Since(stats.LastUpdate).Round(time.Minute))
	} else {
		fmt.Fprintln(out, "Last update:     never")
	}

	if statsHealth {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Health Check")
		fmt.Fprintln(out, "------------")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		health := client.HealthCheck(ctx)

		status := "healthy"
		if !health.Healthy {
			status = "unhealthy"
		}
		fmt.Fprintf(out, "Status:              %s\n", status)
		fmt.Fprintf(out, "Store OK:            %v\n", health.StoreOK)
		fmt.Fprintf(out, "Reasoner configured: %v\n", health.ReasonerConfigured)

		if health.Error != "" {
			fmt.Fprintf(out, "Error:               %s\n", health.Error)
		}
	}

	return nil
}
