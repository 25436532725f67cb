// Package promote implements the command run after a push to the default or a maintenance branch.
package promote

import (
	"github.com/spf13/cobra"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/backport"
	"github.com/alan/backporter/internal/commands"
)

// PromoteCommand encapsulates the promote command with common functionality
type PromoteCommand struct {
	commands.BaseCommand
	Before string
	After  string
	Ref    string
}

// NewPromoteCmd creates the promote command
func NewPromoteCmd(flags *commands.GlobalFlags, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	promoteCmd := &PromoteCommand{}
	var revRange string

	cobraCmd := &cobra.Command{
		Use:   "promote --range <before>..<after> [--ref <branch>]",
		Short: "Backport labelled pull requests promoted by a push",
		Long: `Scan the commits of a push for merged pull requests carrying a backport label
and cherry-pick each one onto the maintenance branch named by its highest label.

One backport pull request is opened (or updated) per target branch. Conflicts are
reported as a comment on the originating pull request and do not fail the run.
Pushes to a maintenance branch mark the parent pull request's label as done and
continue the cascade to lower maintenance branches.

Examples:
  backporter promote --range 1a2b3c4..5d6e7f8                    # Push to the default branch
  backporter promote --range 1a2b3c4..5d6e7f8 --ref branch-6.0   # Push to a maintenance branch`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			if err := commands.ValidateRequired(map[string]string{"range": revRange}, "range"); err != nil {
				return err
			}
			before, after, err := commands.ParseRange(revRange)
			if err != nil {
				return err
			}
			promoteCmd.Before = before
			promoteCmd.After = after

			promoteCmd.Flags = flags
			promoteCmd.LoadConfig = loadConfig
			if err := promoteCmd.Init(); err != nil {
				return err
			}
			defer promoteCmd.Close()

			if err := promoteCmd.InitGit(); err != nil {
				return err
			}
			return commands.Execute(&promoteCmd.BaseCommand, promoteCmd.Request(), cobraCmd.OutOrStdout())
		},
	}

	cobraCmd.Flags().StringVar(&revRange, "range", "", "Pushed commit range as <before>..<after>")
	cobraCmd.Flags().StringVar(&promoteCmd.Ref, "ref", "", "Branch that received the push (defaults to the configured default branch)")

	return cobraCmd
}

// Request builds the orchestrator request for this command
func (pc *PromoteCommand) Request() backport.Request {
	ref := pc.Ref
	if ref == "" && pc.Config != nil {
		ref = pc.Config.DefaultBranch
	}
	return backport.Request{
		Mode:   cmd.ModePromote,
		Before: pc.Before,
		After:  pc.After,
		Ref:    ref,
	}
}
