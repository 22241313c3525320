package cmd

import (
	"fmt"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/spf13/cobra"
)

func newCheckpointCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and reset last-success checkpoints",
	}

	cmd.AddCommand(newCheckpointResetCmd(app))

	return cmd
}

func newCheckpointResetCmd(app *app) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the last success so the account runs on the next cycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.service.ResetCheckpoint(cmd.Context(), domain.AccountID(accountID)); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "checkpoint reset for %s\n", accountID)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
