// Package cleanup implements the command run when a maintenance branch is retired.
package cleanup

import (
	"github.com/spf13/cobra"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/backport"
	"github.com/alan/backporter/internal/commands"
)

// NewCleanupCmd creates the cleanup command
func NewCleanupCmd(flags *commands.GlobalFlags, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <maintenance-branch>",
		Short: "Remove a retired maintenance branch's label from merged pull requests",
		Long: `Remove the backport label matching a retired maintenance branch from the most
recently merged pull requests that still carry it. Open pull requests keep the label.

Examples:
  backporter cleanup branch-5.4`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			base := &commands.BaseCommand{Flags: flags, LoadConfig: loadConfig}
			if err := base.Init(); err != nil {
				return err
			}
			defer base.Close()

			req := backport.Request{Mode: cmd.ModeCleanup, Branch: args[0]}
			return commands.Execute(base, req, cobraCmd.OutOrStdout())
		},
	}
}
