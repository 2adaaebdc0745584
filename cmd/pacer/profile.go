package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hyperengineering/pacer"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the learner profile",
	Long: `Display the learner profile built from recorded study events.

With --update, a profile update cycle runs first (requires enough
buffered events and reasoner credentials).

Example:
  pacer profile
  pacer profile --update`,
	RunE: runProfile,
}

var profileUpdate bool

func init() {
	profileCmd.Flags().BoolVar(&profileUpdate, "update", false, "Run a profile update cycle before displaying")

	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	if profileUpdate {
		err := runWithSpinner(os.Stderr, "Updating profile", func() error {
			return client.UpdateProfile(context.Background())
		})
		switch {
		case errors.Is(err, pacer.ErrNoReasoner):
			printWarning(cmd.OutOrStdout(), "No reasoner configured; profile unchanged")
		case err != nil:
			return fmt.Errorf("update profile: %w", err)
		}
	}

	return outputProfile(cmd, client.Profile())
}
