package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/spf13/cobra"
)

func newTryCmd(app *app) *cobra.Command {
	var accountID string
	var record bool
	var noSpinner bool

	cmd := &cobra.Command{
		Use:   "try",
		Short: "Run the action once for one account, ignoring the cooldown",
		Long:  "try runs the configured action a single time with no cooldown check and no retries. The checkpoint is left untouched unless --record is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			action, err := wireAction(app.cfg.Action)
			if err != nil {
				return err
			}

			service := application.NewService(app.runAccounts, app.store, ports.SystemClock{}, app.cfg.Executor.Cooldown)
			perform := func(ctx context.Context) error {
				return service.Try(ctx, domain.AccountID(accountID), action, app.cfg.Executor.AttemptTimeout, record)
			}

			if noSpinner {
				err = perform(cmd.Context())
			} else {
				err = runTrySpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Trying %s...", accountID), perform)
			}
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("action succeeded for %s", accountID)
			if record {
				msg += ", checkpoint updated"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().BoolVar(&record, "record", false, "Update the checkpoint on success")
	cmd.Flags().BoolVar(&noSpinner, "no-spinner", false, "Do not draw a progress spinner")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
