package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/cyclerun/internal/adapters/repo/tokenfile"
	tomlrepo "github.com/bnema/cyclerun/internal/adapters/repo/toml"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountImportCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.accounts.List(cmd.Context())
			if err != nil {
				return err
			}

			for _, account := range accounts {
				line := fmt.Sprintf("%s\t%s", account.ID, account.Name)
				if account.Disabled {
					line += "\tdisabled"
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			return nil
		},
	}
}

func newAccountImportCmd(app *app) *cobra.Command {
	var from string
	var proxiesPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import accounts from a token.txt file into accounts.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := os.Open(from)
			if err != nil {
				return fmt.Errorf("open token file: %w", err)
			}
			defer file.Close()

			accounts, err := tokenfile.Parse(file, app.logger)
			if err != nil {
				return err
			}

			proxies, err := tokenfile.ReadProxies(proxiesPath)
			if err != nil {
				return err
			}
			accounts = domain.AssignProxies(accounts, proxies)

			writer, err := tomlrepo.NewRepository(app.viper)
			if err != nil {
				return fmt.Errorf("wire account repository: %w", err)
			}

			imported, err := app.service.ImportAccounts(cmd.Context(), writer, accounts)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d accounts into %s\n", imported, writer.Path())
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Path to a token.txt file (<id>=harborSession=<token> per line)")
	cmd.Flags().StringVar(&proxiesPath, "proxies", "", "Optional proxies.txt, assigned round-robin")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
