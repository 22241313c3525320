package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func Execute() error {
	return executeRoot(newRootCmd())
}

// executeRoot releases wired resources even when the command fails, since
// cobra skips post-run hooks after a RunE error.
func executeRoot(root *cobra.Command, app *app) error {
	err := root.Execute()
	return errors.Join(err, app.close())
}

func newRootCmd() (*cobra.Command, *app) {
	var configPath string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "cyclerun",
		Short:         "cyclerun: run a daily job for each account, gated by a cooldown",
		Long:          "cyclerun walks a list of accounts on a repeating cycle, runs one action per account with retries and a cool-off, and records the last success so an account never runs twice within its cooldown.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(configPath, cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default $HOME/.config/cyclerun/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newCheckpointCmd(app),
		newHistoryCmd(app),
		newTryCmd(app),
		newRunCmd(app),
		newStatusCmd(app),
	)

	return rootCmd, app
}
