// Package remind implements the scheduled conflict sweep command.
package remind

import (
	"github.com/spf13/cobra"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/backport"
	"github.com/alan/backporter/internal/commands"
)

// NewRemindCmd creates the remind command
func NewRemindCmd(flags *commands.GlobalFlags, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Label conflicting pull requests and remind their authors",
		Long: `Sweep the most recent open pull requests targeting the default or a maintenance
branch. Pull requests that stopped being mergeable get the conflicts label and a
notification; pull requests that became mergeable again lose the label. Pull
requests that still carry the label from an earlier sweep get a reminder.

Examples:
  backporter remind
  backporter remind --repository acme/widgets`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			base := &commands.BaseCommand{Flags: flags, LoadConfig: loadConfig}
			if err := base.Init(); err != nil {
				return err
			}
			defer base.Close()

			return commands.Execute(base, backport.Request{Mode: cmd.ModeRemind}, cobraCmd.OutOrStdout())
		},
	}
}
