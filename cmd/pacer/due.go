package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List cards whose review time has passed",
	Long: `List all cards that are due for review, most urgent first.

Example:
  pacer due
  pacer due --json`,
	RunE: runDue,
}

func init() {
	rootCmd.AddCommand(dueCmd)
}

func runDue(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	due, err := client.Due(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("list due cards: %w", err)
	}

	return outputDue(cmd, due)
}
