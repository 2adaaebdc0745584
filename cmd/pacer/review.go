package main

import (
	"fmt"

	"github.com/hyperengineering/pacer"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review <card-id>...",
	Short: "Select the cards most worth studying now",
	Long: `Select a study session from a pool of candidate cards.

Urgent reviews fill most slots; never-studied cards fill the rest
unless --no-new is given.

Example:
  pacer review apple banana cherry --count 2
  pacer review $(cat deck.txt) --count 20 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

var (
	reviewCount int
	reviewNoNew bool
)

func init() {
	reviewCmd.Flags().IntVarP(&reviewCount, "count", "n", 10, "Maximum number of cards to select")
	reviewCmd.Flags().BoolVar(&reviewNoNew, "no-new", false, "Only select cards with review history")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	selection, err := client.SelectCards(args, pacer.SelectOptions{
		Count:      reviewCount,
		IncludeNew: !reviewNoNew,
	})
	if err != nil {
		return fmt.Errorf("select cards: %w", err)
	}

	return outputSelection(cmd, selection)
}
