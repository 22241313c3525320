package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var accountID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent job results (sqlite backend)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.history == nil {
				return fmt.Errorf("%w, current backend is %q", errHistoryUnsupported, app.cfg.Checkpoint.Backend)
			}

			results, err := app.service.History(cmd.Context(), app.history, domain.AccountID(accountID), limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(historyEntries(results))
			}

			rendered, err := app.historyRenderer(results, app.renderOptions())
			if err != nil {
				return fmt.Errorf("render history: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (all accounts when empty)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output history as JSON")

	return cmd
}

type historyEntry struct {
	AccountID  domain.AccountID  `json:"account_id"`
	Kind       domain.ResultKind `json:"kind"`
	Reason     string            `json:"reason,omitempty"`
	Error      string            `json:"error,omitempty"`
	Attempts   int               `json:"attempts"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

func historyEntries(results []domain.JobResult) []historyEntry {
	entries := make([]historyEntry, 0, len(results))
	for _, result := range results {
		entries = append(entries, historyEntry{
			AccountID:  result.AccountID,
			Kind:       result.Kind,
			Reason:     result.Reason,
			Error:      result.ErrorMessage(),
			Attempts:   result.Attempts,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
		})
	}

	return entries
}
