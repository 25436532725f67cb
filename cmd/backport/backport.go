// Package backport implements the command run when a backport label is added to a merged pull request.
package backport

import (
	"github.com/spf13/cobra"

	"github.com/alan/backporter/cmd"
	core "github.com/alan/backporter/internal/backport"
	"github.com/alan/backporter/internal/commands"
)

// BackportCommand encapsulates the backport command with common functionality
type BackportCommand struct {
	commands.BaseCommand
	PRNumber int
	Base     string
	Head     string
	Label    string
}

// NewBackportCmd creates the backport command
func NewBackportCmd(flags *commands.GlobalFlags, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	backportCmd := &BackportCommand{}
	var prNumber string

	cobraCmd := &cobra.Command{
		Use:   "backport --pr <number> --label <backport/X.Y> [--base <branch>] [--head <sha>]",
		Short: "Backport one merged pull request using a label added after merge",
		Long: `Cherry-pick a merged pull request onto the maintenance branch named by a
backport label that was added after the pull request was merged.

Only the highest backport label on the pull request is acted on; lower labels
are carried over to the backport pull request and handled when it is promoted.
The merge commit is taken from the pull request; --head is used when the
hosting platform does not report one.

Examples:
  backporter backport --pr 123 --label backport/6.0
  backporter backport --pr 123 --label backport/5.4 --base main --head 5d6e7f8`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			if err := commands.ValidateRequired(map[string]string{
				"pr":    prNumber,
				"label": backportCmd.Label,
			}, "pr", "label"); err != nil {
				return err
			}
			number, err := commands.ParsePRNumber(prNumber)
			if err != nil {
				return err
			}
			backportCmd.PRNumber = number
			if backportCmd.Head != "" {
				if err := commands.ValidateSHA(backportCmd.Head); err != nil {
					return err
				}
			}

			backportCmd.Flags = flags
			backportCmd.LoadConfig = loadConfig
			if err := backportCmd.Init(); err != nil {
				return err
			}
			defer backportCmd.Close()

			if err := backportCmd.InitGit(); err != nil {
				return err
			}
			return commands.Execute(&backportCmd.BaseCommand, backportCmd.Request(), cobraCmd.OutOrStdout())
		},
	}

	cobraCmd.Flags().StringVar(&prNumber, "pr", "", "Number of the merged pull request")
	cobraCmd.Flags().StringVar(&backportCmd.Label, "label", "", "Backport label that was added, e.g. backport/6.0")
	cobraCmd.Flags().StringVar(&backportCmd.Base, "base", "", "Base branch the pull request was merged into (defaults to the configured default branch)")
	cobraCmd.Flags().StringVar(&backportCmd.Head, "head", "", "Merge commit SHA, used when the pull request does not report one")

	return cobraCmd
}

// Request builds the orchestrator request for this command
func (bc *BackportCommand) Request() core.Request {
	base := bc.Base
	if base == "" && bc.Config != nil {
		base = bc.Config.DefaultBranch
	}
	return core.Request{
		Mode:  cmd.ModeBackport,
		PR:    bc.PRNumber,
		Base:  base,
		Head:  bc.Head,
		Label: bc.Label,
	}
}
